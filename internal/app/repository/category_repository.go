package repository

import (
	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/pkg/logger"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(category *model.Category) error
	FindAll(activeOnly bool) ([]model.Category, error)
	FindByID(id uint) (*model.Category, error)
	FindBySlug(slug string) (*model.Category, error)
	Update(category *model.Category) error
	Delete(id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(category *model.Category) error {
	logger.Debug("Creating category in database", map[string]interface{}{
		"name": category.Name,
		"slug": category.Slug,
	})

	if err := r.db.Create(category).Error; err != nil {
		logger.Error("Failed to create category in database", err, map[string]interface{}{
			"name": category.Name,
			"slug": category.Slug,
		})
		return err
	}

	logger.Debug("Category created in database", map[string]interface{}{
		"category_id": category.ID,
		"name":        category.Name,
	})
	return nil
}

func (r *categoryRepository) FindAll(activeOnly bool) ([]model.Category, error) {
	logger.Debug("Finding categories in database", map[string]interface{}{
		"active_only": activeOnly,
	})

	query := r.db.Model(&model.Category{}).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var categories []model.Category
	if err := query.Find(&categories).Error; err != nil {
		logger.Error("Failed to find categories in database", err, map[string]interface{}{
			"active_only": activeOnly,
		})
		return nil, err
	}

	logger.Debug("Categories found in database", map[string]interface{}{
		"count": len(categories),
	})
	return categories, nil
}

func (r *categoryRepository) FindByID(id uint) (*model.Category, error) {
	logger.Debug("Finding category by ID in database", map[string]interface{}{
		"category_id": id,
	})

	var category model.Category
	if err := r.db.First(&category, id).Error; err != nil {
		logger.Error("Failed to find category by ID in database", err, map[string]interface{}{
			"category_id": id,
		})
		return nil, err
	}

	logger.Debug("Category found by ID in database", map[string]interface{}{
		"category_id": category.ID,
		"name":        category.Name,
	})
	return &category, nil
}

func (r *categoryRepository) FindBySlug(slug string) (*model.Category, error) {
	logger.Debug("Finding category by slug in database", map[string]interface{}{
		"slug": slug,
	})

	var category model.Category
	if err := r.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		logger.Error("Failed to find category by slug in database", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}

	logger.Debug("Category found by slug in database", map[string]interface{}{
		"category_id": category.ID,
		"slug":        category.Slug,
	})
	return &category, nil
}

func (r *categoryRepository) Update(category *model.Category) error {
	logger.Debug("Updating category in database", map[string]interface{}{
		"category_id": category.ID,
		"name":        category.Name,
	})

	if err := r.db.Save(category).Error; err != nil {
		logger.Error("Failed to update category in database", err, map[string]interface{}{
			"category_id": category.ID,
			"name":        category.Name,
		})
		return err
	}

	logger.Debug("Category updated in database", map[string]interface{}{
		"category_id": category.ID,
		"name":        category.Name,
	})
	return nil
}

func (r *categoryRepository) Delete(id uint) error {
	logger.Debug("Deleting category from database", map[string]interface{}{
		"category_id": id,
	})

	if err := r.db.Delete(&model.Category{}, id).Error; err != nil {
		logger.Error("Failed to delete category from database", err, map[string]interface{}{
			"category_id": id,
		})
		return err
	}

	logger.Debug("Category deleted from database", map[string]interface{}{
		"category_id": id,
	})
	return nil
}
