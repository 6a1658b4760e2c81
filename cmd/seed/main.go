package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/goatmart/goatmart-backend/config"
	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/internal/app/repository"
	"github.com/goatmart/goatmart-backend/internal/db"
	"github.com/goatmart/goatmart-backend/pkg/util"
)

// Imports a product catalogue from an XLSX sheet. Expected columns:
//
//	0  category slug
//	1  name
//	2  short description
//	3  description
//	4  price (IDR)
//	5  sale price (IDR, optional)
//	6  stock quantity
//	7  SKU
//	8  breed
//	9  gender (male/female/mixed)
//	10 age range
//	11 weight range (kg)
//	12 health info
//	13 allow preorder (yes/no)
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	if err := db.Seed(); err != nil {
		log.Fatal("Failed to seed categories:", err)
	}

	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())

	categories, err := categoryRepo.FindAll(false)
	if err != nil {
		log.Fatal("Failed to load categories:", err)
	}
	categoryBySlug := make(map[string]uint, len(categories))
	for _, category := range categories {
		categoryBySlug[category.Slug] = category.ID
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, skipped, err := readProductsFromXLSX(filePath, categoryBySlug)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total products to import: %d (skipped %d rows)\n", len(products), skipped)
	if len(products) == 0 {
		fmt.Println("Nothing to import.")
		return
	}

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	batchSize := 500
	fmt.Printf("Starting bulk import with batch size: %d\n", batchSize)
	if err := productRepo.BulkCreate(products, batchSize); err != nil {
		log.Fatal("Failed to bulk create products:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", len(products))
}

func readProductsFromXLSX(filePath string, categoryBySlug map[string]uint) ([]model.Product, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	var products []model.Product
	seenSKUs := make(map[string]bool)
	slugCounter := make(map[string]int)
	skipped := 0

	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}

		if len(row) < 14 {
			skipped++
			continue
		}

		categorySlug := strings.TrimSpace(row[0])
		name := strings.TrimSpace(row[1])
		shortDescription := strings.TrimSpace(row[2])
		description := strings.TrimSpace(row[3])
		priceStr := strings.TrimSpace(row[4])
		salePriceStr := strings.TrimSpace(row[5])
		stockStr := strings.TrimSpace(row[6])
		sku := strings.TrimSpace(row[7])
		breed := strings.TrimSpace(row[8])
		gender := model.ProductGender(strings.ToLower(strings.TrimSpace(row[9])))
		ageRange := strings.TrimSpace(row[10])
		weightStr := strings.TrimSpace(row[11])
		healthInfo := strings.TrimSpace(row[12])
		allowPreorder := strings.EqualFold(strings.TrimSpace(row[13]), "yes")

		if name == "" || sku == "" || priceStr == "" {
			skipped++
			continue
		}

		categoryID, ok := categoryBySlug[categorySlug]
		if !ok {
			skipped++
			continue
		}

		price, err := decimal.NewFromString(priceStr)
		if err != nil || price.LessThanOrEqual(decimal.Zero) {
			skipped++
			continue
		}

		var salePrice *decimal.Decimal
		if salePriceStr != "" {
			parsed, err := decimal.NewFromString(salePriceStr)
			if err != nil || !parsed.LessThan(price) {
				skipped++
				continue
			}
			salePrice = &parsed
		}

		stock, err := strconv.Atoi(stockStr)
		if err != nil || stock < 0 {
			skipped++
			continue
		}

		if !gender.IsValid() {
			gender = model.GenderMixed
		}

		var weight float64
		if weightStr != "" {
			weight, _ = strconv.ParseFloat(weightStr, 64)
		}

		if seenSKUs[sku] {
			skipped++
			continue
		}
		seenSKUs[sku] = true

		baseSlug := util.Slugify(name)
		slug := baseSlug
		if count, exists := slugCounter[baseSlug]; exists {
			slugCounter[baseSlug] = count + 1
			slug = fmt.Sprintf("%s-%d", baseSlug, count+1)
		} else {
			slugCounter[baseSlug] = 1
		}

		products = append(products, model.Product{
			CategoryID:       categoryID,
			Name:             name,
			Slug:             slug,
			ShortDescription: shortDescription,
			Description:      description,
			Price:            price,
			SalePrice:        salePrice,
			StockQuantity:    stock,
			SKU:              sku,
			Breed:            breed,
			Gender:           gender,
			AgeRange:         ageRange,
			WeightRange:      weight,
			HealthInfo:       healthInfo,
			AllowPreorder:    allowPreorder,
			IsActive:         true,
		})
	}

	return products, skipped, nil
}
