package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/internal/app/repository"
	"github.com/goatmart/goatmart-backend/internal/events"
	"github.com/goatmart/goatmart-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrAlreadyAffiliate      = errors.New("user is already enrolled in the affiliate program")
	ErrAffiliateNotFound     = errors.New("affiliate account not found")
	ErrInvalidReferralCode   = errors.New("referral code is invalid or inactive")
	ErrReferralNotFound      = errors.New("referral not found")
	ErrInvalidReferralStatus = errors.New("referral is not in the required status")
)

const (
	affiliateCodePrefixLen = 6
	affiliateCodeFallback  = "GOAT"
	affiliateCodeAttempts  = 100
)

// defaultCommissionRate is a percentage applied to the order total.
var defaultCommissionRate = decimal.NewFromFloat(5.00)

// AffiliateDashboard aggregates what an affiliate sees on their earnings page.
type AffiliateDashboard struct {
	Affiliate          *model.Affiliate          `json:"affiliate"`
	Referrals          []model.AffiliateReferral `json:"referrals"`
	TotalReferrals     int                       `json:"total_referrals"`
	ConvertedReferrals int                       `json:"converted_referrals"`
}

type AffiliateService interface {
	JoinProgram(userID uint) (*model.Affiliate, error)
	ResolveCode(code string) (*model.Affiliate, error)
	GetDashboard(userID uint) (*AffiliateDashboard, error)
	RecordConversion(ctx context.Context, event events.OrderCompleted) error
	ApproveReferral(referralID uint) (*model.AffiliateReferral, error)
	MarkReferralPaid(referralID uint) (*model.AffiliateReferral, error)
}

type affiliateService struct {
	affiliateRepo repository.AffiliateRepository
	userRepo      repository.UserRepository
	orderRepo     repository.OrderRepository
}

func NewAffiliateService(
	affiliateRepo repository.AffiliateRepository,
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
) AffiliateService {
	return &affiliateService{
		affiliateRepo: affiliateRepo,
		userRepo:      userRepo,
		orderRepo:     orderRepo,
	}
}

// codePrefix derives the referral code stem from the user's name: uppercase
// letters and digits only, at most six characters.
func codePrefix(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			if b.Len() >= affiliateCodePrefixLen {
				break
			}
		}
	}
	if b.Len() == 0 {
		return affiliateCodeFallback
	}
	return b.String()
}

// generateCode finds a free referral code by appending an incrementing
// number to the stem: AHMADY, AHMADY1, AHMADY2 and so on.
func (s *affiliateService) generateCode(name string) (string, error) {
	prefix := codePrefix(name)

	for i := 0; i < affiliateCodeAttempts; i++ {
		code := prefix
		if i > 0 {
			code = fmt.Sprintf("%s%d", prefix, i)
		}

		exists, err := s.affiliateRepo.ExistsByCode(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("could not generate a free referral code for prefix %q", prefix)
}

// JoinProgram enrolls the user as an affiliate and assigns their referral
// code. Each user gets at most one affiliate account.
func (s *affiliateService) JoinProgram(userID uint) (*model.Affiliate, error) {
	logger.Info("Enrolling user in affiliate program", map[string]interface{}{
		"user_id": userID,
	})

	existing, err := s.affiliateRepo.FindByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing affiliate", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Enrollment rejected: already an affiliate", map[string]interface{}{
			"user_id":      userID,
			"affiliate_id": existing.ID,
		})
		return nil, ErrAlreadyAffiliate
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	code, err := s.generateCode(user.Name)
	if err != nil {
		logger.Error("Failed to generate referral code", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	affiliate := &model.Affiliate{
		UserID:          userID,
		Code:            code,
		CommissionRate:  defaultCommissionRate,
		TotalEarnings:   decimal.Zero,
		PendingEarnings: decimal.Zero,
		PaidEarnings:    decimal.Zero,
		IsActive:        true,
	}

	if err := s.affiliateRepo.Create(affiliate); err != nil {
		logger.Error("Failed to create affiliate", err, map[string]interface{}{
			"user_id": userID,
			"code":    code,
		})
		return nil, err
	}

	logger.Info("User enrolled in affiliate program", map[string]interface{}{
		"user_id":      userID,
		"affiliate_id": affiliate.ID,
		"code":         code,
	})
	return affiliate, nil
}

// ResolveCode looks up an active affiliate by referral code.
func (s *affiliateService) ResolveCode(code string) (*model.Affiliate, error) {
	logger.Debug("Resolving referral code", map[string]interface{}{
		"code": code,
	})

	affiliate, err := s.affiliateRepo.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Unknown referral code", map[string]interface{}{
				"code": code,
			})
			return nil, ErrInvalidReferralCode
		}
		logger.Error("Failed to resolve referral code", err, map[string]interface{}{
			"code": code,
		})
		return nil, err
	}

	if !affiliate.IsActive {
		logger.Warn("Referral code belongs to inactive affiliate", map[string]interface{}{
			"code":         code,
			"affiliate_id": affiliate.ID,
		})
		return nil, ErrInvalidReferralCode
	}

	return affiliate, nil
}

func (s *affiliateService) GetDashboard(userID uint) (*AffiliateDashboard, error) {
	logger.Debug("Fetching affiliate dashboard", map[string]interface{}{
		"user_id": userID,
	})

	affiliate, err := s.affiliateRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Dashboard requested by non-affiliate", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrAffiliateNotFound
		}
		logger.Error("Failed to fetch affiliate", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	referrals, err := s.affiliateRepo.FindReferralsByAffiliateID(affiliate.ID)
	if err != nil {
		logger.Error("Failed to fetch affiliate referrals", err, map[string]interface{}{
			"affiliate_id": affiliate.ID,
		})
		return nil, err
	}

	converted := 0
	for _, referral := range referrals {
		if referral.OrderID != nil {
			converted++
		}
	}

	logger.Info("Affiliate dashboard fetched", map[string]interface{}{
		"user_id":             userID,
		"affiliate_id":        affiliate.ID,
		"total_referrals":     len(referrals),
		"converted_referrals": converted,
	})

	return &AffiliateDashboard{
		Affiliate:          affiliate,
		Referrals:          referrals,
		TotalReferrals:     len(referrals),
		ConvertedReferrals: converted,
	}, nil
}

// RecordConversion credits commission for a completed order placed by a
// referred user. At most one conversion is recorded per order, so event
// redelivery is harmless.
func (s *affiliateService) RecordConversion(ctx context.Context, event events.OrderCompleted) error {
	logger.Debug("Recording affiliate conversion", map[string]interface{}{
		"order_id": event.OrderID,
		"user_id":  event.UserID,
	})

	exists, err := s.affiliateRepo.ExistsReferralByOrderID(event.OrderID)
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("Conversion already recorded for order", map[string]interface{}{
			"order_id": event.OrderID,
		})
		return nil
	}

	user, err := s.userRepo.FindByID(event.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Conversion skipped: buyer not found", map[string]interface{}{
				"order_id": event.OrderID,
				"user_id":  event.UserID,
			})
			return nil
		}
		return err
	}

	if user.ReferredBy == nil {
		// Not a referred customer, nothing to credit.
		return nil
	}

	affiliate, err := s.affiliateRepo.FindByUserID(*user.ReferredBy)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Conversion skipped: referrer has no affiliate account", map[string]interface{}{
				"order_id":    event.OrderID,
				"referrer_id": *user.ReferredBy,
			})
			return nil
		}
		return err
	}

	if !affiliate.IsActive {
		logger.Warn("Conversion skipped: affiliate inactive", map[string]interface{}{
			"order_id":     event.OrderID,
			"affiliate_id": affiliate.ID,
		})
		return nil
	}

	commission := event.TotalAmount.Mul(affiliate.CommissionRate).Div(decimal.NewFromInt(100)).Round(2)
	now := time.Now()
	orderID := event.OrderID

	// The signup referral converts on the first order; later orders get
	// their own referral rows.
	referral, err := s.affiliateRepo.FindPendingReferralByUser(affiliate.ID, user.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if referral != nil {
		referral.OrderID = &orderID
		referral.CommissionAmount = commission
		referral.ConvertedAt = &now
		if err := s.affiliateRepo.UpdateReferral(referral); err != nil {
			logger.Error("Failed to convert signup referral", err, map[string]interface{}{
				"referral_id": referral.ID,
				"order_id":    orderID,
			})
			return err
		}
	} else {
		referral = &model.AffiliateReferral{
			AffiliateID:      affiliate.ID,
			ReferredUserID:   user.ID,
			OrderID:          &orderID,
			CommissionAmount: commission,
			Status:           model.ReferralStatusPending,
			ConvertedAt:      &now,
		}
		if err := s.affiliateRepo.CreateReferral(referral); err != nil {
			logger.Error("Failed to create conversion referral", err, map[string]interface{}{
				"affiliate_id": affiliate.ID,
				"order_id":     orderID,
			})
			return err
		}
	}

	affiliate.PendingEarnings = affiliate.PendingEarnings.Add(commission)
	affiliate.TotalEarnings = affiliate.TotalEarnings.Add(commission)
	if err := s.affiliateRepo.Update(affiliate); err != nil {
		logger.Error("Failed to credit affiliate earnings", err, map[string]interface{}{
			"affiliate_id": affiliate.ID,
			"commission":   commission,
		})
		return err
	}

	logger.Info("Affiliate conversion recorded", map[string]interface{}{
		"affiliate_id": affiliate.ID,
		"referral_id":  referral.ID,
		"order_id":     orderID,
		"commission":   commission,
	})
	return nil
}

// ApproveReferral moves a converted referral from pending to approved.
func (s *affiliateService) ApproveReferral(referralID uint) (*model.AffiliateReferral, error) {
	logger.Info("Approving referral", map[string]interface{}{
		"referral_id": referralID,
	})

	referral, err := s.affiliateRepo.FindReferralByID(referralID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferralNotFound
		}
		return nil, err
	}

	if referral.Status != model.ReferralStatusPending || referral.OrderID == nil {
		logger.Warn("Cannot approve referral", map[string]interface{}{
			"referral_id": referralID,
			"status":      referral.Status,
			"converted":   referral.OrderID != nil,
		})
		return nil, ErrInvalidReferralStatus
	}

	referral.Status = model.ReferralStatusApproved
	if err := s.affiliateRepo.UpdateReferral(referral); err != nil {
		logger.Error("Failed to approve referral", err, map[string]interface{}{
			"referral_id": referralID,
		})
		return nil, err
	}

	logger.Info("Referral approved", map[string]interface{}{
		"referral_id": referralID,
	})
	return referral, nil
}

// MarkReferralPaid settles an approved referral and moves its commission
// from pending to paid earnings.
func (s *affiliateService) MarkReferralPaid(referralID uint) (*model.AffiliateReferral, error) {
	logger.Info("Marking referral paid", map[string]interface{}{
		"referral_id": referralID,
	})

	referral, err := s.affiliateRepo.FindReferralByID(referralID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferralNotFound
		}
		return nil, err
	}

	if referral.Status != model.ReferralStatusApproved {
		logger.Warn("Cannot mark referral paid", map[string]interface{}{
			"referral_id": referralID,
			"status":      referral.Status,
		})
		return nil, ErrInvalidReferralStatus
	}

	affiliate, err := s.affiliateRepo.FindByID(referral.AffiliateID)
	if err != nil {
		return nil, err
	}

	referral.Status = model.ReferralStatusPaid
	if err := s.affiliateRepo.UpdateReferral(referral); err != nil {
		logger.Error("Failed to mark referral paid", err, map[string]interface{}{
			"referral_id": referralID,
		})
		return nil, err
	}

	affiliate.PendingEarnings = affiliate.PendingEarnings.Sub(referral.CommissionAmount)
	affiliate.PaidEarnings = affiliate.PaidEarnings.Add(referral.CommissionAmount)
	if err := s.affiliateRepo.Update(affiliate); err != nil {
		logger.Error("Failed to settle affiliate earnings", err, map[string]interface{}{
			"affiliate_id": affiliate.ID,
			"referral_id":  referralID,
		})
		return nil, err
	}

	logger.Info("Referral marked paid", map[string]interface{}{
		"referral_id":  referralID,
		"affiliate_id": affiliate.ID,
		"commission":   referral.CommissionAmount,
	})
	return referral, nil
}
