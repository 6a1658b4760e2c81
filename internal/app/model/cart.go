package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart belongs to either a registered user or an anonymous session,
// never both. Carts are hard-deleted: checkout destroys the cart, and
// the (cart_id, product_id) uniqueness on items must not collide with
// soft-deleted rows.
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    *uint     `gorm:"uniqueIndex" json:"user_id"`
	SessionID *string   `gorm:"uniqueIndex" json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

// Subtotal sums price * quantity over all items.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c *Cart) TotalItems() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

type CartItem struct {
	ID        uint `gorm:"primarykey" json:"id"`
	CartID    uint `gorm:"not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Quantity  int  `gorm:"not null" json:"quantity"`
	// Price is captured when the item is first added and kept on merge.
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	IsPreorder bool            `gorm:"default:false" json:"is_preorder"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// Relationships
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (ci *CartItem) LineTotal() decimal.Decimal {
	return ci.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}
