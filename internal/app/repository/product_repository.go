package repository

import (
	"fmt"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductSort string

const (
	ProductSortPrice     ProductSort = "price"
	ProductSortCreatedAt ProductSort = "created_at"
	ProductSortName      ProductSort = "name"
)

type ProductFilter struct {
	CategorySlug  string
	Search        string
	Breed         string
	Gender        *model.ProductGender
	FeaturedOnly  bool
	InStockOnly   bool
	IncludeHidden bool
	SortBy        ProductSort
	SortAscending bool
	Limit         int
	Offset        int
}

type ProductRepository interface {
	Create(product *model.Product) error
	BulkCreate(products []model.Product, batchSize int) error
	FindAll() ([]model.Product, error)
	FindWithFilter(filter ProductFilter) ([]model.Product, error)
	CountWithFilter(filter ProductFilter) (int64, error)
	FindByID(id uint) (*model.Product, error)
	FindBySlug(slug string) (*model.Product, error)
	FindFeatured(limit int) ([]model.Product, error)
	Update(product *model.Product) error
	Delete(id uint) error
	UpdateStock(id uint, delta int) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":        product.Name,
		"sku":         product.SKU,
		"category_id": product.CategoryID,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name":        product.Name,
			"sku":         product.SKU,
			"category_id": product.CategoryID,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (r *productRepository) BulkCreate(products []model.Product, batchSize int) error {
	logger.Info("Bulk creating products in database", map[string]interface{}{
		"count":      len(products),
		"batch_size": batchSize,
	})

	if err := r.db.CreateInBatches(products, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create products in database", err, map[string]interface{}{
			"count": len(products),
		})
		return err
	}

	logger.Info("Products bulk created in database", map[string]interface{}{
		"count": len(products),
	})
	return nil
}

func (r *productRepository) filterQuery(filter ProductFilter) *gorm.DB {
	query := r.db.Model(&model.Product{}).Preload("Category")

	if !filter.IncludeHidden {
		query = query.Where("products.is_active = ?", true)
	}

	if filter.CategorySlug != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}

	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", filter.Search)
		query = query.Where("products.name LIKE ? OR products.description LIKE ? OR products.breed LIKE ?", like, like, like)
	}

	if filter.Breed != "" {
		query = query.Where("products.breed = ?", filter.Breed)
	}

	if filter.Gender != nil {
		query = query.Where("products.gender = ?", *filter.Gender)
	}

	if filter.FeaturedOnly {
		query = query.Where("products.is_featured = ?", true)
	}

	if filter.InStockOnly {
		query = query.Where("products.stock_quantity > 0 OR products.allow_preorder = ?", true)
	}

	return query
}

func (r *productRepository) FindAll() ([]model.Product, error) {
	return r.FindWithFilter(ProductFilter{})
}

func (r *productRepository) FindWithFilter(filter ProductFilter) ([]model.Product, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"category_slug": filter.CategorySlug,
		"search":        filter.Search,
		"breed":         filter.Breed,
		"featured_only": filter.FeaturedOnly,
		"in_stock_only": filter.InStockOnly,
		"sort_by":       filter.SortBy,
		"ascending":     filter.SortAscending,
		"limit":         filter.Limit,
		"offset":        filter.Offset,
	})

	query := r.filterQuery(filter)

	direction := "DESC"
	if filter.SortAscending {
		direction = "ASC"
	}

	switch filter.SortBy {
	case ProductSortPrice:
		query = query.Order("products.price " + direction)
	case ProductSortName:
		query = query.Order("products.name " + direction)
	case ProductSortCreatedAt:
		fallthrough
	default:
		query = query.Order("products.created_at " + direction)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err, map[string]interface{}{
			"category_slug": filter.CategorySlug,
			"search":        filter.Search,
		})
		return nil, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) CountWithFilter(filter ProductFilter) (int64, error) {
	var count int64
	if err := r.filterQuery(filter).Count(&count).Error; err != nil {
		logger.Error("Failed to count products with filter", err, map[string]interface{}{
			"category_slug": filter.CategorySlug,
			"search":        filter.Search,
		})
		return 0, err
	}
	return count, nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	err := r.db.Preload("Category").First(&product, id).Error
	if err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Debug("Product found by ID in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return &product, nil
}

func (r *productRepository) FindBySlug(slug string) (*model.Product, error) {
	logger.Debug("Finding product by slug in database", map[string]interface{}{
		"slug": slug,
	})

	var product model.Product
	err := r.db.Preload("Category").Where("slug = ?", slug).First(&product).Error
	if err != nil {
		logger.Error("Failed to find product by slug in database", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}

	logger.Debug("Product found by slug in database", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return &product, nil
}

func (r *productRepository) FindFeatured(limit int) ([]model.Product, error) {
	return r.FindWithFilter(ProductFilter{
		FeaturedOnly: true,
		SortBy:       ProductSortCreatedAt,
		Limit:        limit,
	})
}

func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})

	if err := r.db.Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
			"name":       product.Name,
		})
		return err
	}

	logger.Debug("Product updated in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (r *productRepository) Delete(id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	if err := r.db.Delete(&model.Product{}, id).Error; err != nil {
		logger.Error("Failed to delete product from database", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}

	logger.Debug("Product deleted from database", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

func (r *productRepository) UpdateStock(id uint, delta int) error {
	logger.Debug("Updating product stock in database", map[string]interface{}{
		"product_id": id,
		"delta":      delta,
	})

	if err := r.db.Model(&model.Product{}).Where("id = ?", id).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta)).Error; err != nil {
		logger.Error("Failed to update product stock in database", err, map[string]interface{}{
			"product_id": id,
			"delta":      delta,
		})
		return err
	}

	logger.Debug("Product stock updated in database", map[string]interface{}{
		"product_id": id,
		"delta":      delta,
	})
	return nil
}
