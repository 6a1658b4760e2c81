package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo carries the parsed error code and message.
type ErrorInfo struct {
	Code    string // see codes.go
	Message string
}

// ParseError converts low-level database and driver errors into user facing
// codes and messages. Sensitive details stay out of the response while still
// giving the user something actionable.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. GORM baseline errors
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. PostgreSQL constraint errors

	// 2-1. Unique constraint violation (23505)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr)
	}

	// 2-2. Foreign key constraint violation (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStr, context)
	}

	// 2-3. Not null constraint violation (23502)
	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return parseNotNullError(errStr)
	}

	// 2-4. Check constraint violation (23514)
	if strings.Contains(errStrLower, "check constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "The given input is invalid",
		}
	}

	// 3. Network errors
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An upstream service is unavailable. Please try again later",
		}
	}

	// 4. Default internal error
	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

// parseDuplicateKeyError maps unique constraint violations to specific codes.
func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "idx_users_email") || strings.Contains(errLower, "email") {
		return ErrorInfo{
			Code:    AuthEmailAlreadyExists,
			Message: "This email address is already registered",
		}
	}

	if strings.Contains(errLower, "sku") {
		return ErrorInfo{
			Code:    ProductSKUExists,
			Message: "This SKU is already in use",
		}
	}

	if strings.Contains(errLower, "slug") {
		return ErrorInfo{
			Code:    ProductSlugExists,
			Message: "This slug is already in use",
		}
	}

	if strings.Contains(errLower, "order_number") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "The order could not be created. Please try again",
		}
	}

	if strings.Contains(errLower, "affiliates") && strings.Contains(errLower, "code") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "The referral code is already taken",
		}
	}

	if strings.Contains(errLower, "idx_cart_product") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "This product is already in the cart",
		}
	}

	if strings.Contains(errLower, "pkey") || strings.Contains(errLower, "primary key") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "The record already exists. Please try again",
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "The record already exists",
	}
}

// parseForeignKeyError maps foreign key violations to specific codes.
func parseForeignKeyError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "still referenced") || strings.Contains(errLower, "is still referenced by") {
		if strings.Contains(context, "category") {
			return ErrorInfo{
				Code:    ResourceConflict,
				Message: "The category still has products and cannot be deleted",
			}
		}
		if strings.Contains(context, "product") {
			return ErrorInfo{
				Code:    ResourceConflict,
				Message: "The product is referenced by existing orders and cannot be deleted",
			}
		}
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "The record is referenced by other data and cannot be deleted",
		}
	}

	if strings.Contains(errLower, "user_id") || strings.Contains(errLower, "fk_users") {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: "The referenced user does not exist",
		}
	}
	if strings.Contains(errLower, "product_id") || strings.Contains(errLower, "fk_products") {
		return ErrorInfo{
			Code:    ProductNotFound,
			Message: "The referenced product does not exist",
		}
	}
	if strings.Contains(errLower, "category_id") || strings.Contains(errLower, "fk_categories") {
		return ErrorInfo{
			Code:    CategoryNotFound,
			Message: "The referenced category does not exist",
		}
	}

	return ErrorInfo{
		Code:    ResourceNotFound,
		Message: "The referenced record does not exist",
	}
}

// parseNotNullError maps not-null violations to required-field messages.
func parseNotNullError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") {
		return ErrorInfo{Code: ValidationRequired, Message: "Email is required"}
	}
	if strings.Contains(errLower, "password") {
		return ErrorInfo{Code: ValidationRequired, Message: "Password is required"}
	}
	if strings.Contains(errLower, "name") {
		return ErrorInfo{Code: ValidationRequired, Message: "Name is required"}
	}
	if strings.Contains(errLower, "price") {
		return ErrorInfo{Code: ValidationRequired, Message: "Price is required"}
	}

	return ErrorInfo{
		Code:    ValidationRequired,
		Message: "A required field is missing",
	}
}

// getNotFoundMessage picks a not-found message based on context.
func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "product") {
		return "Product not found"
	}
	if strings.Contains(contextLower, "category") {
		return "Category not found"
	}
	if strings.Contains(contextLower, "cart") {
		return "Cart not found"
	}
	if strings.Contains(contextLower, "order") {
		return "Order not found"
	}
	if strings.Contains(contextLower, "affiliate") {
		return "Affiliate account not found"
	}
	if strings.Contains(contextLower, "user") {
		return "User not found"
	}

	return "The requested record could not be found"
}

// ParseAndRespond parses the error and writes the response in one step, for
// controllers that have no more specific mapping.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}

// getDefaultErrorMessage picks a generic message based on context.
func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") {
		return "Something went wrong while creating the record. Please try again later"
	}
	if strings.Contains(contextLower, "update") {
		return "Something went wrong while updating the record. Please try again later"
	}
	if strings.Contains(contextLower, "delete") {
		return "Something went wrong while deleting the record. Please try again later"
	}
	if strings.Contains(contextLower, "checkout") {
		return "Something went wrong while placing the order. Please try again later"
	}

	return "Something went wrong. Please try again later"
}
