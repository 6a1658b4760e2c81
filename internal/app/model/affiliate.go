package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Affiliate struct {
	ID     uint   `gorm:"primarykey" json:"id"`
	UserID uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Code   string `gorm:"uniqueIndex;not null" json:"code"`
	// CommissionRate is a percentage, e.g. 5.00 means 5%.
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);default:5.00" json:"commission_rate"`
	// TotalEarnings = PendingEarnings + PaidEarnings at all times.
	TotalEarnings   decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_earnings"`
	PendingEarnings decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"pending_earnings"`
	PaidEarnings    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"paid_earnings"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	User      *User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Referrals []AffiliateReferral `gorm:"foreignKey:AffiliateID" json:"referrals,omitempty"`
}

func (Affiliate) TableName() string {
	return "affiliates"
}

type ReferralStatus string

const (
	ReferralStatusPending  ReferralStatus = "pending"
	ReferralStatusApproved ReferralStatus = "approved"
	ReferralStatusPaid     ReferralStatus = "paid"
)

func (s ReferralStatus) IsValid() bool {
	switch s {
	case ReferralStatusPending, ReferralStatusApproved, ReferralStatusPaid:
		return true
	}
	return false
}

// AffiliateReferral is created when a referred user registers. OrderID,
// CommissionAmount and ConvertedAt are filled on the user's first
// completed order.
type AffiliateReferral struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	AffiliateID      uint            `gorm:"not null;index" json:"affiliate_id"`
	ReferredUserID   uint            `gorm:"not null;index" json:"referred_user_id"`
	OrderID          *uint           `gorm:"uniqueIndex" json:"order_id"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"commission_amount"`
	Status           ReferralStatus  `gorm:"type:varchar(20);default:'pending'" json:"status"`
	ConvertedAt      *time.Time      `json:"converted_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Relationships
	Affiliate    *Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
	ReferredUser *User      `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
	Order        *Order     `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}

func (AffiliateReferral) TableName() string {
	return "affiliate_referrals"
}
