package repository

import (
	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/pkg/logger"
	"gorm.io/gorm"
)

type AffiliateRepository interface {
	Create(affiliate *model.Affiliate) error
	FindByID(id uint) (*model.Affiliate, error)
	FindByUserID(userID uint) (*model.Affiliate, error)
	FindByCode(code string) (*model.Affiliate, error)
	ExistsByCode(code string) (bool, error)
	Update(affiliate *model.Affiliate) error

	CreateReferral(referral *model.AffiliateReferral) error
	FindReferralByID(id uint) (*model.AffiliateReferral, error)
	FindReferralsByAffiliateID(affiliateID uint) ([]model.AffiliateReferral, error)
	FindPendingReferralByUser(affiliateID, referredUserID uint) (*model.AffiliateReferral, error)
	ExistsReferralByOrderID(orderID uint) (bool, error)
	UpdateReferral(referral *model.AffiliateReferral) error
}

type affiliateRepository struct {
	db *gorm.DB
}

func NewAffiliateRepository(db *gorm.DB) AffiliateRepository {
	return &affiliateRepository{db: db}
}

func (r *affiliateRepository) Create(affiliate *model.Affiliate) error {
	logger.Debug("Creating affiliate in database", map[string]interface{}{
		"user_id": affiliate.UserID,
		"code":    affiliate.Code,
	})

	if err := r.db.Create(affiliate).Error; err != nil {
		logger.Error("Failed to create affiliate in database", err, map[string]interface{}{
			"user_id": affiliate.UserID,
			"code":    affiliate.Code,
		})
		return err
	}

	logger.Debug("Affiliate created in database", map[string]interface{}{
		"affiliate_id": affiliate.ID,
		"user_id":      affiliate.UserID,
		"code":         affiliate.Code,
	})
	return nil
}

func (r *affiliateRepository) FindByID(id uint) (*model.Affiliate, error) {
	logger.Debug("Finding affiliate by ID in database", map[string]interface{}{
		"affiliate_id": id,
	})

	var affiliate model.Affiliate
	if err := r.db.First(&affiliate, id).Error; err != nil {
		logger.Error("Failed to find affiliate by ID in database", err, map[string]interface{}{
			"affiliate_id": id,
		})
		return nil, err
	}

	logger.Debug("Affiliate found by ID in database", map[string]interface{}{
		"affiliate_id": affiliate.ID,
		"code":         affiliate.Code,
	})
	return &affiliate, nil
}

func (r *affiliateRepository) FindByUserID(userID uint) (*model.Affiliate, error) {
	logger.Debug("Finding affiliate by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var affiliate model.Affiliate
	if err := r.db.Where("user_id = ?", userID).First(&affiliate).Error; err != nil {
		logger.Error("Failed to find affiliate by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Affiliate found by user ID in database", map[string]interface{}{
		"affiliate_id": affiliate.ID,
		"user_id":      userID,
	})
	return &affiliate, nil
}

func (r *affiliateRepository) FindByCode(code string) (*model.Affiliate, error) {
	logger.Debug("Finding affiliate by code in database", map[string]interface{}{
		"code": code,
	})

	var affiliate model.Affiliate
	if err := r.db.Where("code = ?", code).First(&affiliate).Error; err != nil {
		logger.Error("Failed to find affiliate by code in database", err, map[string]interface{}{
			"code": code,
		})
		return nil, err
	}

	logger.Debug("Affiliate found by code in database", map[string]interface{}{
		"affiliate_id": affiliate.ID,
		"code":         code,
	})
	return &affiliate, nil
}

func (r *affiliateRepository) ExistsByCode(code string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Affiliate{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		logger.Error("Failed to check affiliate code existence in database", err, map[string]interface{}{
			"code": code,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *affiliateRepository) Update(affiliate *model.Affiliate) error {
	logger.Debug("Updating affiliate in database", map[string]interface{}{
		"affiliate_id": affiliate.ID,
		"code":         affiliate.Code,
	})

	if err := r.db.Save(affiliate).Error; err != nil {
		logger.Error("Failed to update affiliate in database", err, map[string]interface{}{
			"affiliate_id": affiliate.ID,
		})
		return err
	}

	logger.Debug("Affiliate updated in database", map[string]interface{}{
		"affiliate_id": affiliate.ID,
	})
	return nil
}

func (r *affiliateRepository) CreateReferral(referral *model.AffiliateReferral) error {
	logger.Debug("Creating affiliate referral in database", map[string]interface{}{
		"affiliate_id":     referral.AffiliateID,
		"referred_user_id": referral.ReferredUserID,
	})

	if err := r.db.Create(referral).Error; err != nil {
		logger.Error("Failed to create affiliate referral in database", err, map[string]interface{}{
			"affiliate_id":     referral.AffiliateID,
			"referred_user_id": referral.ReferredUserID,
		})
		return err
	}

	logger.Debug("Affiliate referral created in database", map[string]interface{}{
		"referral_id":  referral.ID,
		"affiliate_id": referral.AffiliateID,
	})
	return nil
}

func (r *affiliateRepository) FindReferralByID(id uint) (*model.AffiliateReferral, error) {
	logger.Debug("Finding affiliate referral by ID in database", map[string]interface{}{
		"referral_id": id,
	})

	var referral model.AffiliateReferral
	if err := r.db.Preload("ReferredUser").Preload("Order").
		First(&referral, id).Error; err != nil {
		logger.Error("Failed to find affiliate referral by ID in database", err, map[string]interface{}{
			"referral_id": id,
		})
		return nil, err
	}

	logger.Debug("Affiliate referral found by ID in database", map[string]interface{}{
		"referral_id":  referral.ID,
		"affiliate_id": referral.AffiliateID,
		"status":       referral.Status,
	})
	return &referral, nil
}

func (r *affiliateRepository) FindReferralsByAffiliateID(affiliateID uint) ([]model.AffiliateReferral, error) {
	logger.Debug("Finding affiliate referrals in database", map[string]interface{}{
		"affiliate_id": affiliateID,
	})

	var referrals []model.AffiliateReferral
	if err := r.db.Preload("ReferredUser").Preload("Order").
		Where("affiliate_id = ?", affiliateID).
		Order("created_at DESC").
		Find(&referrals).Error; err != nil {
		logger.Error("Failed to find affiliate referrals in database", err, map[string]interface{}{
			"affiliate_id": affiliateID,
		})
		return nil, err
	}

	logger.Debug("Affiliate referrals found in database", map[string]interface{}{
		"affiliate_id": affiliateID,
		"count":        len(referrals),
	})
	return referrals, nil
}

// FindPendingReferralByUser returns the signup referral that has not yet
// converted into an order.
func (r *affiliateRepository) FindPendingReferralByUser(affiliateID, referredUserID uint) (*model.AffiliateReferral, error) {
	logger.Debug("Finding pending referral by user in database", map[string]interface{}{
		"affiliate_id":     affiliateID,
		"referred_user_id": referredUserID,
	})

	var referral model.AffiliateReferral
	if err := r.db.Where("affiliate_id = ? AND referred_user_id = ? AND order_id IS NULL", affiliateID, referredUserID).
		First(&referral).Error; err != nil {
		logger.Error("Failed to find pending referral by user in database", err, map[string]interface{}{
			"affiliate_id":     affiliateID,
			"referred_user_id": referredUserID,
		})
		return nil, err
	}

	logger.Debug("Pending referral found by user in database", map[string]interface{}{
		"referral_id": referral.ID,
	})
	return &referral, nil
}

func (r *affiliateRepository) ExistsReferralByOrderID(orderID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&model.AffiliateReferral{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		logger.Error("Failed to check referral order existence in database", err, map[string]interface{}{
			"order_id": orderID,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *affiliateRepository) UpdateReferral(referral *model.AffiliateReferral) error {
	logger.Debug("Updating affiliate referral in database", map[string]interface{}{
		"referral_id": referral.ID,
		"status":      referral.Status,
	})

	if err := r.db.Save(referral).Error; err != nil {
		logger.Error("Failed to update affiliate referral in database", err, map[string]interface{}{
			"referral_id": referral.ID,
		})
		return err
	}

	logger.Debug("Affiliate referral updated in database", map[string]interface{}{
		"referral_id": referral.ID,
		"status":      referral.Status,
	})
	return nil
}
