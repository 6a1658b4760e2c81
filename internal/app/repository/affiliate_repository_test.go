package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/internal/db"
)

func setupAffiliateTest(t *testing.T) (*gorm.DB, AffiliateRepository, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	repo := NewAffiliateRepository(testDB)

	user := &model.User{
		Email:        "affiliate@example.com",
		PasswordHash: "hash",
		Name:         "Affiliate Tester",
		Role:         model.RoleCustomer,
	}
	testDB.Create(user)

	return testDB, repo, user
}

func createAffiliate(t *testing.T, repo AffiliateRepository, userID uint, code string) *model.Affiliate {
	affiliate := &model.Affiliate{
		UserID:         userID,
		Code:           code,
		CommissionRate: decimal.NewFromFloat(5.00),
		IsActive:       true,
	}
	require.NoError(t, repo.Create(affiliate))
	return affiliate
}

func TestAffiliateRepository_CreateAndFind(t *testing.T) {
	_, repo, user := setupAffiliateTest(t)

	affiliate := createAffiliate(t, repo, user.ID, "TESTER")

	byUser, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, affiliate.ID, byUser.ID)

	byCode, err := repo.FindByCode("TESTER")
	require.NoError(t, err)
	assert.Equal(t, affiliate.ID, byCode.ID)

	_, err = repo.FindByCode("NOBODY")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAffiliateRepository_ExistsByCode(t *testing.T) {
	_, repo, user := setupAffiliateTest(t)

	exists, err := repo.ExistsByCode("TAKEN1")
	require.NoError(t, err)
	assert.False(t, exists)

	createAffiliate(t, repo, user.ID, "TAKEN1")

	exists, err = repo.ExistsByCode("TAKEN1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAffiliateRepository_ReferralsByAffiliate(t *testing.T) {
	testDB, repo, user := setupAffiliateTest(t)

	affiliate := createAffiliate(t, repo, user.ID, "REFER1")

	referred := &model.User{
		Email:        "referred@example.com",
		PasswordHash: "hash",
		Name:         "Referred",
		Role:         model.RoleCustomer,
	}
	testDB.Create(referred)

	require.NoError(t, repo.CreateReferral(&model.AffiliateReferral{
		AffiliateID:      affiliate.ID,
		ReferredUserID:   referred.ID,
		CommissionAmount: decimal.Zero,
		Status:           model.ReferralStatusPending,
	}))

	referrals, err := repo.FindReferralsByAffiliateID(affiliate.ID)
	require.NoError(t, err)
	require.Len(t, referrals, 1)
	assert.Equal(t, referred.ID, referrals[0].ReferredUserID)
}

func TestAffiliateRepository_FindPendingReferralByUser(t *testing.T) {
	testDB, repo, user := setupAffiliateTest(t)

	affiliate := createAffiliate(t, repo, user.ID, "REFER2")

	referred := &model.User{
		Email:        "referred@example.com",
		PasswordHash: "hash",
		Name:         "Referred",
		Role:         model.RoleCustomer,
	}
	testDB.Create(referred)

	signup := &model.AffiliateReferral{
		AffiliateID:      affiliate.ID,
		ReferredUserID:   referred.ID,
		CommissionAmount: decimal.Zero,
		Status:           model.ReferralStatusPending,
	}
	require.NoError(t, repo.CreateReferral(signup))

	found, err := repo.FindPendingReferralByUser(affiliate.ID, referred.ID)
	require.NoError(t, err)
	assert.Equal(t, signup.ID, found.ID)

	// Converted referrals no longer match
	orderID := uint(42)
	signup.OrderID = &orderID
	require.NoError(t, repo.UpdateReferral(signup))

	_, err = repo.FindPendingReferralByUser(affiliate.ID, referred.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAffiliateRepository_ExistsReferralByOrderID(t *testing.T) {
	testDB, repo, user := setupAffiliateTest(t)

	affiliate := createAffiliate(t, repo, user.ID, "REFER3")

	referred := &model.User{
		Email:        "referred@example.com",
		PasswordHash: "hash",
		Name:         "Referred",
		Role:         model.RoleCustomer,
	}
	testDB.Create(referred)

	exists, err := repo.ExistsReferralByOrderID(77)
	require.NoError(t, err)
	assert.False(t, exists)

	orderID := uint(77)
	require.NoError(t, repo.CreateReferral(&model.AffiliateReferral{
		AffiliateID:      affiliate.ID,
		ReferredUserID:   referred.ID,
		OrderID:          &orderID,
		CommissionAmount: decimal.NewFromInt(100000),
		Status:           model.ReferralStatusPending,
	}))

	exists, err = repo.ExistsReferralByOrderID(77)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAffiliateRepository_UpdateEarnings(t *testing.T) {
	_, repo, user := setupAffiliateTest(t)

	affiliate := createAffiliate(t, repo, user.ID, "EARN01")

	affiliate.PendingEarnings = decimal.NewFromInt(250000)
	affiliate.TotalEarnings = decimal.NewFromInt(250000)
	require.NoError(t, repo.Update(affiliate))

	reloaded, err := repo.FindByID(affiliate.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(250000).Equal(reloaded.PendingEarnings))
	assert.True(t, decimal.NewFromInt(250000).Equal(reloaded.TotalEarnings))
	assert.True(t, reloaded.PaidEarnings.IsZero())
}
