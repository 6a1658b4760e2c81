package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/internal/app/repository"
	"github.com/goatmart/goatmart-backend/internal/db"
	"github.com/goatmart/goatmart-backend/internal/events"
)

func setupAffiliateServiceTest(t *testing.T) (AffiliateService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	affiliateRepo := repository.NewAffiliateRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	affiliateService := NewAffiliateService(affiliateRepo, userRepo, orderRepo)

	return affiliateService, testDB
}

func createAffiliateUser(t *testing.T, testDB *gorm.DB, email, name string) *model.User {
	user := &model.User{
		Email:        email,
		PasswordHash: "hash",
		Name:         name,
		Role:         model.RoleCustomer,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func completionEvent(orderID, userID uint, total int64) events.OrderCompleted {
	return events.OrderCompleted{
		OrderID:     orderID,
		OrderNumber: "GM-20260830-TESTTEST",
		UserID:      userID,
		TotalAmount: decimal.NewFromInt(total),
		CompletedAt: time.Now(),
	}
}

func TestAffiliateService_JoinProgram_CodeFromName(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	user := createAffiliateUser(t, testDB, "ahmad@example.com", "Ahmad Yani")

	affiliate, err := affiliateService.JoinProgram(user.ID)
	require.NoError(t, err)

	assert.Equal(t, "AHMADY", affiliate.Code)
	assert.True(t, affiliate.IsActive)
	assert.True(t, decimal.NewFromFloat(5.00).Equal(affiliate.CommissionRate))
	assert.True(t, affiliate.TotalEarnings.IsZero())
}

func TestAffiliateService_JoinProgram_CodeCollision(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	first := createAffiliateUser(t, testDB, "ahmad1@example.com", "Ahmad Yani")
	second := createAffiliateUser(t, testDB, "ahmad2@example.com", "Ahmad Yamin")

	a1, err := affiliateService.JoinProgram(first.ID)
	require.NoError(t, err)
	a2, err := affiliateService.JoinProgram(second.ID)
	require.NoError(t, err)

	assert.Equal(t, "AHMADY", a1.Code)
	assert.Equal(t, "AHMADY1", a2.Code)
}

func TestAffiliateService_JoinProgram_FallbackPrefix(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	// Name with no usable characters falls back to the default stem
	user := createAffiliateUser(t, testDB, "sym@example.com", "!!! ---")

	affiliate, err := affiliateService.JoinProgram(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "GOAT", affiliate.Code)
}

func TestAffiliateService_JoinProgram_AlreadyEnrolled(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	user := createAffiliateUser(t, testDB, "dup@example.com", "Dupe")

	_, err := affiliateService.JoinProgram(user.ID)
	require.NoError(t, err)

	affiliate, err := affiliateService.JoinProgram(user.ID)
	assert.ErrorIs(t, err, ErrAlreadyAffiliate)
	assert.Nil(t, affiliate)
}

func TestAffiliateService_ResolveCode(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	user := createAffiliateUser(t, testDB, "ref@example.com", "Rina")
	enrolled, err := affiliateService.JoinProgram(user.ID)
	require.NoError(t, err)

	resolved, err := affiliateService.ResolveCode(enrolled.Code)
	require.NoError(t, err)
	assert.Equal(t, enrolled.ID, resolved.ID)

	_, err = affiliateService.ResolveCode("NOPE99")
	assert.ErrorIs(t, err, ErrInvalidReferralCode)

	// Deactivated affiliates stop resolving
	testDB.Model(&model.Affiliate{}).Where("id = ?", enrolled.ID).Update("is_active", false)
	_, err = affiliateService.ResolveCode(enrolled.Code)
	assert.ErrorIs(t, err, ErrInvalidReferralCode)
}

func TestAffiliateService_RecordConversion_CreditsCommission(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	referrer := createAffiliateUser(t, testDB, "referrer@example.com", "Referrer")
	affiliate, err := affiliateService.JoinProgram(referrer.ID)
	require.NoError(t, err)

	buyer := createAffiliateUser(t, testDB, "buyer@example.com", "Buyer")
	testDB.Model(&model.User{}).Where("id = ?", buyer.ID).Update("referred_by", referrer.ID)

	// 5% of 8,930,000 = 446,500
	err = affiliateService.RecordConversion(context.Background(), completionEvent(101, buyer.ID, 8930000))
	require.NoError(t, err)

	var updated model.Affiliate
	require.NoError(t, testDB.First(&updated, affiliate.ID).Error)
	expected := decimal.NewFromInt(446500)
	assert.True(t, expected.Equal(updated.PendingEarnings), "pending = %s", updated.PendingEarnings)
	assert.True(t, expected.Equal(updated.TotalEarnings), "total = %s", updated.TotalEarnings)
	assert.True(t, updated.PaidEarnings.IsZero())

	var referral model.AffiliateReferral
	require.NoError(t, testDB.Where("affiliate_id = ?", affiliate.ID).First(&referral).Error)
	require.NotNil(t, referral.OrderID)
	assert.EqualValues(t, 101, *referral.OrderID)
	assert.Equal(t, model.ReferralStatusPending, referral.Status)
	assert.True(t, expected.Equal(referral.CommissionAmount))
	assert.NotNil(t, referral.ConvertedAt)
}

func TestAffiliateService_RecordConversion_ConvertsSignupReferral(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	referrer := createAffiliateUser(t, testDB, "referrer@example.com", "Referrer")
	affiliate, err := affiliateService.JoinProgram(referrer.ID)
	require.NoError(t, err)

	buyer := createAffiliateUser(t, testDB, "buyer@example.com", "Buyer")
	testDB.Model(&model.User{}).Where("id = ?", buyer.ID).Update("referred_by", referrer.ID)

	// Signup-time referral, not yet tied to an order
	signup := &model.AffiliateReferral{
		AffiliateID:      affiliate.ID,
		ReferredUserID:   buyer.ID,
		CommissionAmount: decimal.Zero,
		Status:           model.ReferralStatusPending,
	}
	require.NoError(t, testDB.Create(signup).Error)

	err = affiliateService.RecordConversion(context.Background(), completionEvent(201, buyer.ID, 1000000))
	require.NoError(t, err)

	// The signup row converts in place instead of a second row appearing
	var count int64
	testDB.Model(&model.AffiliateReferral{}).Where("affiliate_id = ?", affiliate.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	var updated model.AffiliateReferral
	require.NoError(t, testDB.First(&updated, signup.ID).Error)
	require.NotNil(t, updated.OrderID)
	assert.EqualValues(t, 201, *updated.OrderID)
	assert.True(t, decimal.NewFromInt(50000).Equal(updated.CommissionAmount))
}

func TestAffiliateService_RecordConversion_IdempotentPerOrder(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	referrer := createAffiliateUser(t, testDB, "referrer@example.com", "Referrer")
	affiliate, err := affiliateService.JoinProgram(referrer.ID)
	require.NoError(t, err)

	buyer := createAffiliateUser(t, testDB, "buyer@example.com", "Buyer")
	testDB.Model(&model.User{}).Where("id = ?", buyer.ID).Update("referred_by", referrer.ID)

	event := completionEvent(301, buyer.ID, 2000000)
	require.NoError(t, affiliateService.RecordConversion(context.Background(), event))
	require.NoError(t, affiliateService.RecordConversion(context.Background(), event))

	var updated model.Affiliate
	require.NoError(t, testDB.First(&updated, affiliate.ID).Error)
	assert.True(t, decimal.NewFromInt(100000).Equal(updated.TotalEarnings), "redelivery must not double-credit")

	var count int64
	testDB.Model(&model.AffiliateReferral{}).Where("affiliate_id = ?", affiliate.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestAffiliateService_RecordConversion_UnreferredBuyer(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	buyer := createAffiliateUser(t, testDB, "solo@example.com", "Solo")

	err := affiliateService.RecordConversion(context.Background(), completionEvent(401, buyer.ID, 1000000))
	require.NoError(t, err)

	var count int64
	testDB.Model(&model.AffiliateReferral{}).Count(&count)
	assert.Zero(t, count)
}

func TestAffiliateService_RecordConversion_InactiveAffiliate(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	referrer := createAffiliateUser(t, testDB, "referrer@example.com", "Referrer")
	affiliate, err := affiliateService.JoinProgram(referrer.ID)
	require.NoError(t, err)
	testDB.Model(&model.Affiliate{}).Where("id = ?", affiliate.ID).Update("is_active", false)

	buyer := createAffiliateUser(t, testDB, "buyer@example.com", "Buyer")
	testDB.Model(&model.User{}).Where("id = ?", buyer.ID).Update("referred_by", referrer.ID)

	err = affiliateService.RecordConversion(context.Background(), completionEvent(501, buyer.ID, 1000000))
	require.NoError(t, err)

	var updated model.Affiliate
	require.NoError(t, testDB.First(&updated, affiliate.ID).Error)
	assert.True(t, updated.TotalEarnings.IsZero())
}

func TestAffiliateService_ReferralLifecycle(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	referrer := createAffiliateUser(t, testDB, "referrer@example.com", "Referrer")
	affiliate, err := affiliateService.JoinProgram(referrer.ID)
	require.NoError(t, err)

	buyer := createAffiliateUser(t, testDB, "buyer@example.com", "Buyer")
	testDB.Model(&model.User{}).Where("id = ?", buyer.ID).Update("referred_by", referrer.ID)

	require.NoError(t, affiliateService.RecordConversion(context.Background(), completionEvent(601, buyer.ID, 2000000)))

	var referral model.AffiliateReferral
	require.NoError(t, testDB.Where("affiliate_id = ?", affiliate.ID).First(&referral).Error)
	commission := referral.CommissionAmount

	// Cannot pay out before approval
	_, err = affiliateService.MarkReferralPaid(referral.ID)
	assert.ErrorIs(t, err, ErrInvalidReferralStatus)

	approved, err := affiliateService.ApproveReferral(referral.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReferralStatusApproved, approved.Status)

	// Approving twice fails
	_, err = affiliateService.ApproveReferral(referral.ID)
	assert.ErrorIs(t, err, ErrInvalidReferralStatus)

	paid, err := affiliateService.MarkReferralPaid(referral.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReferralStatusPaid, paid.Status)

	// Earnings moved from pending to paid, total unchanged
	var settled model.Affiliate
	require.NoError(t, testDB.First(&settled, affiliate.ID).Error)
	assert.True(t, settled.PendingEarnings.IsZero())
	assert.True(t, commission.Equal(settled.PaidEarnings))
	assert.True(t, commission.Equal(settled.TotalEarnings))
	assert.True(t, settled.TotalEarnings.Equal(settled.PendingEarnings.Add(settled.PaidEarnings)))
}

func TestAffiliateService_ApproveReferral_UnconvertedSignup(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	referrer := createAffiliateUser(t, testDB, "referrer@example.com", "Referrer")
	affiliate, err := affiliateService.JoinProgram(referrer.ID)
	require.NoError(t, err)

	buyer := createAffiliateUser(t, testDB, "buyer@example.com", "Buyer")
	signup := &model.AffiliateReferral{
		AffiliateID:      affiliate.ID,
		ReferredUserID:   buyer.ID,
		CommissionAmount: decimal.Zero,
		Status:           model.ReferralStatusPending,
	}
	require.NoError(t, testDB.Create(signup).Error)

	// A signup referral with no order behind it cannot be approved
	_, err = affiliateService.ApproveReferral(signup.ID)
	assert.ErrorIs(t, err, ErrInvalidReferralStatus)
}

func TestAffiliateService_GetDashboard(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	referrer := createAffiliateUser(t, testDB, "referrer@example.com", "Referrer")
	affiliate, err := affiliateService.JoinProgram(referrer.ID)
	require.NoError(t, err)

	buyerA := createAffiliateUser(t, testDB, "a@example.com", "Buyer A")
	buyerB := createAffiliateUser(t, testDB, "b@example.com", "Buyer B")
	testDB.Model(&model.User{}).Where("id = ?", buyerA.ID).Update("referred_by", referrer.ID)

	// One converted referral, one signup-only
	require.NoError(t, affiliateService.RecordConversion(context.Background(), completionEvent(701, buyerA.ID, 3000000)))
	require.NoError(t, testDB.Create(&model.AffiliateReferral{
		AffiliateID:      affiliate.ID,
		ReferredUserID:   buyerB.ID,
		CommissionAmount: decimal.Zero,
		Status:           model.ReferralStatusPending,
	}).Error)

	dashboard, err := affiliateService.GetDashboard(referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, dashboard.TotalReferrals)
	assert.Equal(t, 1, dashboard.ConvertedReferrals)
	assert.Len(t, dashboard.Referrals, 2)
}

func TestAffiliateService_GetDashboard_NotEnrolled(t *testing.T) {
	affiliateService, testDB := setupAffiliateServiceTest(t)

	user := createAffiliateUser(t, testDB, "nobody@example.com", "Nobody")

	dashboard, err := affiliateService.GetDashboard(user.ID)
	assert.ErrorIs(t, err, ErrAffiliateNotFound)
	assert.Nil(t, dashboard)
}
