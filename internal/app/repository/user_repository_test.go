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

func setupUserTest(t *testing.T) (*gorm.DB, UserRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	return testDB, NewUserRepository(testDB)
}

func TestUserRepository_CreateAndFindByEmail(t *testing.T) {
	_, repo := setupUserTest(t)

	user := &model.User{
		Email:        "find@example.com",
		PasswordHash: "hash",
		Name:         "Finder",
		Role:         model.RoleCustomer,
	}
	require.NoError(t, repo.Create(user))
	assert.NotZero(t, user.ID)

	found, err := repo.FindByEmail("find@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByEmail("ghost@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_FindByIDWithAffiliate(t *testing.T) {
	testDB, repo := setupUserTest(t)

	user := &model.User{
		Email:        "aff@example.com",
		PasswordHash: "hash",
		Name:         "Affiliated",
		Role:         model.RoleCustomer,
	}
	require.NoError(t, repo.Create(user))

	testDB.Create(&model.Affiliate{
		UserID:         user.ID,
		Code:           "AFFIL1",
		CommissionRate: decimal.NewFromFloat(5.00),
		IsActive:       true,
	})

	found, err := repo.FindByIDWithAffiliate(user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Affiliate)
	assert.Equal(t, "AFFIL1", found.Affiliate.Code)

	// Plain lookup does not preload
	plain, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Nil(t, plain.Affiliate)
}

func TestUserRepository_Update(t *testing.T) {
	_, repo := setupUserTest(t)

	user := &model.User{
		Email:        "upd@example.com",
		PasswordHash: "hash",
		Name:         "Before",
		Role:         model.RoleCustomer,
	}
	require.NoError(t, repo.Create(user))

	user.Name = "After"
	user.Phone = "0812345678"
	require.NoError(t, repo.Update(user))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", found.Name)
	assert.Equal(t, "0812345678", found.Phone)
}

func TestUserRepository_ReferralAttribution(t *testing.T) {
	_, repo := setupUserTest(t)

	referrer := &model.User{
		Email:        "referrer@example.com",
		PasswordHash: "hash",
		Name:         "Referrer",
		Role:         model.RoleCustomer,
	}
	require.NoError(t, repo.Create(referrer))

	referred := &model.User{
		Email:        "referred@example.com",
		PasswordHash: "hash",
		Name:         "Referred",
		Role:         model.RoleCustomer,
		ReferredBy:   &referrer.ID,
	}
	require.NoError(t, repo.Create(referred))

	found, err := repo.FindByID(referred.ID)
	require.NoError(t, err)
	require.NotNil(t, found.ReferredBy)
	assert.Equal(t, referrer.ID, *found.ReferredBy)
}
