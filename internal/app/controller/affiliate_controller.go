package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/goatmart/goatmart-backend/internal/app/service"
	apperrors "github.com/goatmart/goatmart-backend/internal/errors"
	"github.com/goatmart/goatmart-backend/internal/middleware"
)

type AffiliateController struct {
	affiliateService service.AffiliateService
}

func NewAffiliateController(affiliateService service.AffiliateService) *AffiliateController {
	return &AffiliateController{
		affiliateService: affiliateService,
	}
}

// JoinProgram enrols the authenticated user as an affiliate
// POST /api/v1/affiliate/join
func (ctrl *AffiliateController) JoinProgram(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	affiliate, err := ctrl.affiliateService.JoinProgram(userID)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyAffiliate) {
			apperrors.Conflict(c, apperrors.AffiliateAlreadyEnrolled, "You are already enrolled in the affiliate program")
			return
		}
		log.Error("Failed to join affiliate program", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "join affiliate program")
		return
	}

	log.Info("User joined affiliate program", map[string]interface{}{
		"user_id":      userID,
		"affiliate_id": affiliate.ID,
		"code":         affiliate.Code,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Welcome to the affiliate program",
		"affiliate": affiliate,
	})
}

// GetDashboard returns the authenticated affiliate's stats and referrals
// GET /api/v1/affiliate/dashboard
func (ctrl *AffiliateController) GetDashboard(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	dashboard, err := ctrl.affiliateService.GetDashboard(userID)
	if err != nil {
		if errors.Is(err, service.ErrAffiliateNotFound) {
			apperrors.NotFound(c, apperrors.AffiliateNotFound, "You are not enrolled in the affiliate program")
			return
		}
		log.Error("Failed to load affiliate dashboard", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"affiliate":           dashboard.Affiliate,
		"referrals":           dashboard.Referrals,
		"total_referrals":     dashboard.TotalReferrals,
		"converted_referrals": dashboard.ConvertedReferrals,
	})
}

// ResolveCode validates a referral code for the storefront signup form
// GET /api/v1/affiliate/codes/:code
func (ctrl *AffiliateController) ResolveCode(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))

	affiliate, err := ctrl.affiliateService.ResolveCode(code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReferralCode) {
			apperrors.NotFound(c, apperrors.AffiliateCodeInvalid, "Unknown referral code")
			return
		}
		log.Error("Failed to resolve referral code", err, map[string]interface{}{
			"code": code,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":  affiliate.Code,
		"valid": true,
	})
}

// ApproveReferral moves a converted referral to approved (admin only)
// PUT /api/v1/admin/referrals/:id/approve
func (ctrl *AffiliateController) ApproveReferral(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	referralID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid referral ID")
		return
	}

	referral, err := ctrl.affiliateService.ApproveReferral(uint(referralID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReferralNotFound):
			apperrors.NotFound(c, apperrors.AffiliateReferralNotFound, "Referral not found")
		case errors.Is(err, service.ErrInvalidReferralStatus):
			apperrors.Conflict(c, apperrors.AffiliateReferralInvalid, "This referral cannot be approved in its current state")
		default:
			log.Error("Failed to approve referral", err, map[string]interface{}{
				"referral_id": referralID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	log.Info("Referral approved", map[string]interface{}{
		"referral_id":  referral.ID,
		"affiliate_id": referral.AffiliateID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":  "Referral approved successfully",
		"referral": referral,
	})
}

// MarkReferralPaid records a commission payout (admin only)
// PUT /api/v1/admin/referrals/:id/paid
func (ctrl *AffiliateController) MarkReferralPaid(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	referralID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid referral ID")
		return
	}

	referral, err := ctrl.affiliateService.MarkReferralPaid(uint(referralID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReferralNotFound):
			apperrors.NotFound(c, apperrors.AffiliateReferralNotFound, "Referral not found")
		case errors.Is(err, service.ErrInvalidReferralStatus):
			apperrors.Conflict(c, apperrors.AffiliateReferralInvalid, "Only approved referrals can be marked as paid")
		default:
			log.Error("Failed to mark referral as paid", err, map[string]interface{}{
				"referral_id": referralID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	log.Info("Referral marked as paid", map[string]interface{}{
		"referral_id":       referral.ID,
		"affiliate_id":      referral.AffiliateID,
		"commission_amount": referral.CommissionAmount,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":  "Referral marked as paid",
		"referral": referral,
	})
}
