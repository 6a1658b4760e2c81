package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// The frontend maps these codes to localized messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzAccessDenied = "AUTHZ_ACCESS_DENIED"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"
	AuthzOwnerOnly    = "AUTHZ_OWNER_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Catalog (PRODUCT_) ====================
	ProductNotFound         = "PRODUCT_NOT_FOUND"
	ProductSlugExists       = "PRODUCT_SLUG_EXISTS"
	ProductSKUExists        = "PRODUCT_SKU_EXISTS"
	ProductInvalidSalePrice = "PRODUCT_INVALID_SALE_PRICE" // sale price must be below regular price
	CategoryNotFound        = "CATEGORY_NOT_FOUND"

	// ==================== Cart (CART_) ====================
	CartNotFound       = "CART_NOT_FOUND"
	CartEmpty          = "CART_EMPTY"
	CartItemNotFound   = "CART_ITEM_NOT_FOUND"
	CartItemNotOwned   = "CART_ITEM_NOT_OWNED"
	CartProductSoldOut = "CART_PRODUCT_SOLD_OUT"

	// ==================== Orders (ORDER_) ====================
	OrderNotFound             = "ORDER_NOT_FOUND"
	OrderInvalidStatus        = "ORDER_INVALID_STATUS"
	OrderInvalidPaymentMethod = "ORDER_INVALID_PAYMENT_METHOD"
	OrderInvalidPaymentStatus = "ORDER_INVALID_PAYMENT_STATUS"
	OrderOutOfStock           = "ORDER_OUT_OF_STOCK"
	OrderCheckoutFailed       = "ORDER_CHECKOUT_FAILED"

	// ==================== Affiliate (AFFILIATE_) ====================
	AffiliateNotFound         = "AFFILIATE_NOT_FOUND"
	AffiliateAlreadyEnrolled  = "AFFILIATE_ALREADY_ENROLLED"
	AffiliateCodeInvalid      = "AFFILIATE_CODE_INVALID"
	AffiliateReferralNotFound = "AFFILIATE_REFERRAL_NOT_FOUND"
	AffiliateReferralInvalid  = "AFFILIATE_REFERRAL_INVALID"

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
