package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentOVO          PaymentMethod = "ovo"
	PaymentDana         PaymentMethod = "dana"
	PaymentGopay        PaymentMethod = "gopay"
	PaymentShopeePay    PaymentMethod = "shopee_pay"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentBankTransfer, PaymentOVO, PaymentDana, PaymentGopay, PaymentShopeePay:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Address is embedded twice on Order with shipping_/billing_ column prefixes.
type Address struct {
	Name       string `gorm:"size:255" json:"name"`
	Street     string `gorm:"size:500" json:"street"`
	City       string `gorm:"size:255" json:"city"`
	State      string `gorm:"size:255" json:"state"`
	PostalCode string `gorm:"size:10" json:"postal_code"`
	Phone      string `gorm:"size:20" json:"phone"`
}

type Order struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	UserID      uint        `gorm:"not null;index" json:"user_id"`
	OrderNumber string      `gorm:"uniqueIndex;not null" json:"order_number"`
	Status      OrderStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	ShippingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddress  Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`

	PaymentMethod    PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus    PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	PaymentReference string        `gorm:"size:255" json:"payment_reference"`
	Notes            string        `gorm:"type:text" json:"notes"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User       *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem snapshots the product at purchase time so later catalog
// edits do not rewrite order history.
type OrderItem struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"not null" json:"product_name"`
	ProductSKU  string          `gorm:"not null" json:"product_sku"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	IsPreorder  bool            `gorm:"default:false" json:"is_preorder"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relationships
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
