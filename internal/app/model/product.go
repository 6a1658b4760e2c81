package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductGender string

const (
	GenderMale   ProductGender = "male"
	GenderFemale ProductGender = "female"
	GenderMixed  ProductGender = "mixed"
)

func (g ProductGender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderMixed:
		return true
	}
	return false
}

type Product struct {
	ID               uint             `gorm:"primarykey" json:"id"`
	CategoryID       uint             `gorm:"not null;index" json:"category_id"`
	Name             string           `gorm:"not null" json:"name"`
	Slug             string           `gorm:"uniqueIndex;not null" json:"slug"`
	Description      string           `gorm:"type:text" json:"description"`
	ShortDescription string           `gorm:"size:500" json:"short_description"`
	Price            decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	SalePrice        *decimal.Decimal `gorm:"type:decimal(12,2)" json:"sale_price"`
	StockQuantity    int              `gorm:"default:0" json:"stock_quantity"`
	SKU              string           `gorm:"uniqueIndex;not null" json:"sku"`
	Images           []string         `gorm:"serializer:json" json:"images"`

	// Livestock attributes
	Breed       string        `gorm:"size:100" json:"breed"`
	Gender      ProductGender `gorm:"type:varchar(10)" json:"gender"`
	AgeRange    string        `gorm:"size:50" json:"age_range"`
	WeightRange float64       `json:"weight_range"`
	HealthInfo  string        `gorm:"type:text" json:"health_info"`

	IsFeatured           bool       `gorm:"default:false;index" json:"is_featured"`
	IsActive             bool       `gorm:"index" json:"is_active"`
	AllowPreorder        bool       `gorm:"default:false" json:"allow_preorder"`
	ExpectedAvailability *time.Time `json:"expected_availability"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// CurrentPrice returns the sale price when one is set, the regular price otherwise.
func (p *Product) CurrentPrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

func (p *Product) IsOnSale() bool {
	return p.SalePrice != nil && p.SalePrice.LessThan(p.Price)
}

// IsInStock reports whether the product can be added to a cart. Preorder
// products are purchasable regardless of stock.
func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0 || p.AllowPreorder
}

// IsPreorderOnly reports whether a purchase of this product right now would
// be a preorder rather than a stock sale.
func (p *Product) IsPreorderOnly() bool {
	return p.StockQuantity <= 0 && p.AllowPreorder
}
