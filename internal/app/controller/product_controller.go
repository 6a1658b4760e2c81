package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/internal/app/repository"
	"github.com/goatmart/goatmart-backend/internal/app/service"
	apperrors "github.com/goatmart/goatmart-backend/internal/errors"
	"github.com/goatmart/goatmart-backend/internal/middleware"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type ProductRequest struct {
	CategoryID           uint             `json:"category_id" binding:"required"`
	Name                 string           `json:"name" binding:"required"`
	Description          string           `json:"description"`
	ShortDescription     string           `json:"short_description"`
	Price                decimal.Decimal  `json:"price" binding:"required"`
	SalePrice            *decimal.Decimal `json:"sale_price"`
	StockQuantity        int              `json:"stock_quantity"`
	SKU                  string           `json:"sku" binding:"required"`
	Images               []string         `json:"images"`
	Breed                string           `json:"breed"`
	Gender               string           `json:"gender"`
	AgeRange             string           `json:"age_range"`
	WeightRange          float64          `json:"weight_range"`
	HealthInfo           string           `json:"health_info"`
	IsFeatured           bool             `json:"is_featured"`
	IsActive             *bool            `json:"is_active"`
	AllowPreorder        bool             `json:"allow_preorder"`
	ExpectedAvailability *time.Time       `json:"expected_availability"`
}

func (req *ProductRequest) toInput() service.ProductInput {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	return service.ProductInput{
		CategoryID:           req.CategoryID,
		Name:                 req.Name,
		Description:          req.Description,
		ShortDescription:     req.ShortDescription,
		Price:                req.Price,
		SalePrice:            req.SalePrice,
		StockQuantity:        req.StockQuantity,
		SKU:                  req.SKU,
		Images:               req.Images,
		Breed:                req.Breed,
		Gender:               model.ProductGender(req.Gender),
		AgeRange:             req.AgeRange,
		WeightRange:          req.WeightRange,
		HealthInfo:           req.HealthInfo,
		IsFeatured:           req.IsFeatured,
		IsActive:             isActive,
		AllowPreorder:        req.AllowPreorder,
		ExpectedAvailability: req.ExpectedAvailability,
	}
}

// parseListFilter collects catalogue query parameters into a repository filter.
func parseListFilter(c *gin.Context) repository.ProductFilter {
	filter := repository.ProductFilter{
		CategorySlug: c.Query("category"),
		Search:       c.Query("search"),
		Breed:        c.Query("breed"),
	}

	if gender := c.Query("gender"); gender != "" {
		g := model.ProductGender(gender)
		if g.IsValid() {
			filter.Gender = &g
		}
	}

	filter.FeaturedOnly = c.Query("featured") == "true"
	filter.InStockOnly = c.Query("in_stock") == "true"

	switch c.Query("sort") {
	case "price":
		filter.SortBy = repository.ProductSortPrice
	case "name":
		filter.SortBy = repository.ProductSortName
	default:
		filter.SortBy = repository.ProductSortCreatedAt
	}
	filter.SortAscending = c.Query("order") == "asc"

	pageSize := defaultPageSize
	if raw := c.Query("page_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			pageSize = parsed
		}
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}

	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	return filter
}

// ListProducts returns the catalogue with filtering and pagination
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := parseListFilter(c)

	log.Debug("Listing products", map[string]interface{}{
		"category": filter.CategorySlug,
		"search":   filter.Search,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})

	list, err := ctrl.productService.ListProducts(filter)
	if err != nil {
		log.Error("Failed to list products", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": list.Products,
		"total":    list.Total,
	})
}

// GetProduct returns a single product by slug
// GET /api/v1/products/:slug
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	slug := c.Param("slug")

	product, err := ctrl.productService.GetProductBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"slug": slug,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// GetFeaturedProducts returns the featured selection for the storefront home page
// GET /api/v1/products/featured
func (ctrl *ProductController) GetFeaturedProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	limit := 8
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= maxPageSize {
			limit = parsed
		}
	}

	products, err := ctrl.productService.GetFeaturedProducts(limit)
	if err != nil {
		log.Error("Failed to fetch featured products", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
	})
}

// ListCategories returns all active categories
// GET /api/v1/categories
func (ctrl *ProductController) ListCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.productService.ListCategories(true)
	if err != nil {
		log.Error("Failed to list categories", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
	})
}

// GetCategory returns a single category by slug
// GET /api/v1/categories/:slug
func (ctrl *ProductController) GetCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	slug := c.Param("slug")

	category, err := ctrl.productService.GetCategoryBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			apperrors.NotFound(c, apperrors.CategoryNotFound, "Category not found")
			return
		}
		log.Error("Failed to fetch category", err, map[string]interface{}{
			"slug": slug,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
	})
}

// CreateProduct creates a new product (admin only)
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product payload", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "The given product details are invalid")
		return
	}

	product, err := ctrl.productService.CreateProduct(req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			apperrors.NotFound(c, apperrors.CategoryNotFound, "Category not found")
		case errors.Is(err, service.ErrInvalidSalePrice):
			apperrors.BadRequest(c, apperrors.ProductInvalidSalePrice, "Sale price must be lower than the regular price")
		default:
			log.Error("Failed to create product", err, map[string]interface{}{
				"name": req.Name,
				"sku":  req.SKU,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "create product")
		}
		return
	}

	log.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"sku":        product.SKU,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"product": product,
	})
}

// UpdateProduct updates an existing product (admin only)
// PUT /api/v1/admin/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product ID")
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product payload", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "The given product details are invalid")
		return
	}

	product, err := ctrl.productService.UpdateProduct(uint(id), req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
		case errors.Is(err, service.ErrCategoryNotFound):
			apperrors.NotFound(c, apperrors.CategoryNotFound, "Category not found")
		case errors.Is(err, service.ErrInvalidSalePrice):
			apperrors.BadRequest(c, apperrors.ProductInvalidSalePrice, "Sale price must be lower than the regular price")
		default:
			log.Error("Failed to update product", err, map[string]interface{}{
				"product_id": id,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update product")
		}
		return
	}

	log.Info("Product updated successfully", map[string]interface{}{
		"product_id": product.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": product,
	})
}

// DeleteProduct soft deletes a product (admin only)
// DELETE /api/v1/admin/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product ID")
		return
	}

	if err := ctrl.productService.DeleteProduct(uint(id)); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	log.Info("Product deleted successfully", map[string]interface{}{
		"product_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}
