package db

import (
	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/pkg/logger"
)

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Affiliate{},
		&model.AffiliateReferral{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedInitialData(); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed adds initial data to the database (optional)
func Seed() error {
	return seedInitialData()
}

func seedInitialData() error {
	logger.Info("Seeding initial data...")

	if err := seedCategories(); err != nil {
		logger.Error("Failed to seed categories", err)
		return err
	}

	logger.Info("Initial data seeded successfully")
	return nil
}

// seedCategories creates the goat breed categories the storefront filters on.
func seedCategories() error {
	var count int64
	if err := DB.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info("Categories already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	logger.Info("Seeding category data...")

	categories := []model.Category{
		{
			Name:        "Kambing Kacang",
			Slug:        "kambing-kacang",
			Description: "Kambing lokal asli Indonesia, ukuran kecil dan tahan penyakit. Cocok untuk pemula.",
			IsActive:    true,
		},
		{
			Name:        "Kambing Etawa",
			Slug:        "kambing-etawa",
			Description: "Kambing penghasil susu unggulan dengan postur tinggi dan telinga panjang.",
			IsActive:    true,
		},
		{
			Name:        "Kambing Boer",
			Slug:        "kambing-boer",
			Description: "Kambing pedaging asal Afrika Selatan dengan pertumbuhan cepat dan bobot besar.",
			IsActive:    true,
		},
		{
			Name:        "Kambing Jawarandu",
			Slug:        "kambing-jawarandu",
			Description: "Persilangan Etawa dan Kacang, penghasil susu dan daging yang seimbang.",
			IsActive:    true,
		},
		{
			Name:        "Kambing Gembrong",
			Slug:        "kambing-gembrong",
			Description: "Kambing berbulu panjang khas Bali, langka dan bernilai tinggi.",
			IsActive:    true,
		},
		{
			Name:        "Kambing Marica",
			Slug:        "kambing-marica",
			Description: "Kambing asli Sulawesi Selatan yang tahan kondisi kering.",
			IsActive:    true,
		},
	}

	totalInserted := 0
	for _, category := range categories {
		if err := DB.Create(&category).Error; err != nil {
			logger.Error("Failed to create category", err, map[string]interface{}{
				"category": category.Name,
			})
			return err
		}
		totalInserted++
	}

	logger.Info("Categories seeded successfully", map[string]interface{}{
		"total_categories": totalInserted,
	})

	return nil
}
