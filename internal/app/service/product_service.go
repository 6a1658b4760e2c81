package service

import (
	"errors"
	"time"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/internal/app/repository"
	"github.com/goatmart/goatmart-backend/pkg/logger"
	"github.com/goatmart/goatmart-backend/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidSalePrice = errors.New("sale price must be lower than the regular price")
)

// ProductInput carries the fields admins can set on a product.
type ProductInput struct {
	CategoryID           uint
	Name                 string
	Description          string
	ShortDescription     string
	Price                decimal.Decimal
	SalePrice            *decimal.Decimal
	StockQuantity        int
	SKU                  string
	Images               []string
	Breed                string
	Gender               model.ProductGender
	AgeRange             string
	WeightRange          float64
	HealthInfo           string
	IsFeatured           bool
	IsActive             bool
	AllowPreorder        bool
	ExpectedAvailability *time.Time
}

type ProductList struct {
	Products []model.Product
	Total    int64
}

type ProductService interface {
	ListProducts(filter repository.ProductFilter) (*ProductList, error)
	GetProductByID(id uint) (*model.Product, error)
	GetProductBySlug(slug string) (*model.Product, error)
	GetFeaturedProducts(limit int) ([]model.Product, error)
	ListCategories(activeOnly bool) ([]model.Category, error)
	GetCategoryBySlug(slug string) (*model.Category, error)
	CreateProduct(input ProductInput) (*model.Product, error)
	UpdateProduct(id uint, input ProductInput) (*model.Product, error)
	DeleteProduct(id uint) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *productService) ListProducts(filter repository.ProductFilter) (*ProductList, error) {
	logger.Debug("Listing products", map[string]interface{}{
		"category_slug": filter.CategorySlug,
		"search":        filter.Search,
		"limit":         filter.Limit,
		"offset":        filter.Offset,
	})

	products, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to list products", err, map[string]interface{}{
			"category_slug": filter.CategorySlug,
			"search":        filter.Search,
		})
		return nil, err
	}

	total, err := s.productRepo.CountWithFilter(filter)
	if err != nil {
		logger.Error("Failed to count products", err, map[string]interface{}{
			"category_slug": filter.CategorySlug,
		})
		return nil, err
	}

	logger.Info("Products listed successfully", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return &ProductList{Products: products, Total: total}, nil
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	logger.Debug("Fetching product by ID", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	return product, nil
}

func (s *productService) GetProductBySlug(slug string) (*model.Product, error) {
	logger.Debug("Fetching product by slug", map[string]interface{}{
		"slug": slug,
	})

	product, err := s.productRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found by slug", map[string]interface{}{
				"slug": slug,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product by slug", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}

	return product, nil
}

func (s *productService) GetFeaturedProducts(limit int) ([]model.Product, error) {
	logger.Debug("Fetching featured products", map[string]interface{}{
		"limit": limit,
	})

	products, err := s.productRepo.FindFeatured(limit)
	if err != nil {
		logger.Error("Failed to fetch featured products", err, map[string]interface{}{
			"limit": limit,
		})
		return nil, err
	}

	return products, nil
}

func (s *productService) ListCategories(activeOnly bool) ([]model.Category, error) {
	logger.Debug("Listing categories", map[string]interface{}{
		"active_only": activeOnly,
	})

	categories, err := s.categoryRepo.FindAll(activeOnly)
	if err != nil {
		logger.Error("Failed to list categories", err, nil)
		return nil, err
	}

	return categories, nil
}

func (s *productService) GetCategoryBySlug(slug string) (*model.Category, error) {
	category, err := s.categoryRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Category not found", map[string]interface{}{
				"slug": slug,
			})
			return nil, ErrCategoryNotFound
		}
		logger.Error("Failed to fetch category", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}
	return category, nil
}

func (s *productService) validateInput(input ProductInput) error {
	if input.SalePrice != nil && !input.SalePrice.LessThan(input.Price) {
		logger.Warn("Invalid sale price", map[string]interface{}{
			"price":      input.Price,
			"sale_price": *input.SalePrice,
		})
		return ErrInvalidSalePrice
	}
	return nil
}

func (s *productService) CreateProduct(input ProductInput) (*model.Product, error) {
	logger.Info("Creating product", map[string]interface{}{
		"name":        input.Name,
		"sku":         input.SKU,
		"category_id": input.CategoryID,
	})

	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	if _, err := s.categoryRepo.FindByID(input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot create product: category not found", map[string]interface{}{
				"category_id": input.CategoryID,
			})
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	product := &model.Product{
		CategoryID:           input.CategoryID,
		Name:                 input.Name,
		Slug:                 util.Slugify(input.Name),
		Description:          input.Description,
		ShortDescription:     input.ShortDescription,
		Price:                input.Price,
		SalePrice:            input.SalePrice,
		StockQuantity:        input.StockQuantity,
		SKU:                  input.SKU,
		Images:               input.Images,
		Breed:                input.Breed,
		Gender:               input.Gender,
		AgeRange:             input.AgeRange,
		WeightRange:          input.WeightRange,
		HealthInfo:           input.HealthInfo,
		IsFeatured:           input.IsFeatured,
		IsActive:             input.IsActive,
		AllowPreorder:        input.AllowPreorder,
		ExpectedAvailability: input.ExpectedAvailability,
	}

	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"name": input.Name,
			"sku":  input.SKU,
		})
		return nil, err
	}

	logger.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
		"slug":       product.Slug,
	})
	return product, nil
}

func (s *productService) UpdateProduct(id uint, input ProductInput) (*model.Product, error) {
	logger.Info("Updating product", map[string]interface{}{
		"product_id": id,
	})

	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot update: product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product for update", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	if input.CategoryID != 0 && input.CategoryID != product.CategoryID {
		if _, err := s.categoryRepo.FindByID(input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		product.CategoryID = input.CategoryID
	}

	if input.Name != "" && input.Name != product.Name {
		product.Name = input.Name
		product.Slug = util.Slugify(input.Name)
	}
	product.Description = input.Description
	product.ShortDescription = input.ShortDescription
	product.Price = input.Price
	product.SalePrice = input.SalePrice
	product.StockQuantity = input.StockQuantity
	if input.SKU != "" {
		product.SKU = input.SKU
	}
	product.Images = input.Images
	product.Breed = input.Breed
	product.Gender = input.Gender
	product.AgeRange = input.AgeRange
	product.WeightRange = input.WeightRange
	product.HealthInfo = input.HealthInfo
	product.IsFeatured = input.IsFeatured
	product.IsActive = input.IsActive
	product.AllowPreorder = input.AllowPreorder
	product.ExpectedAvailability = input.ExpectedAvailability

	if err := s.productRepo.Update(product); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Info("Product updated successfully", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return product, nil
}

func (s *productService) DeleteProduct(id uint) error {
	logger.Info("Deleting product", map[string]interface{}{
		"product_id": id,
	})

	if _, err := s.productRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot delete: product not found", map[string]interface{}{
				"product_id": id,
			})
			return ErrProductNotFound
		}
		return err
	}

	if err := s.productRepo.Delete(id); err != nil {
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}

	logger.Info("Product deleted successfully", map[string]interface{}{
		"product_id": id,
	})
	return nil
}
