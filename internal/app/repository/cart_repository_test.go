package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/internal/db"
)

func setupCartTest(t *testing.T) (*gorm.DB, CartRepository, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	repo := NewCartRepository(testDB)

	user := &model.User{
		Email:        "cart@example.com",
		PasswordHash: "hash",
		Name:         "Cart Tester",
		Role:         model.RoleCustomer,
	}
	testDB.Create(user)

	category := &model.Category{Name: "Kambing Kacang", Slug: "kambing-kacang"}
	testDB.Create(category)

	product := &model.Product{
		CategoryID:    category.ID,
		Name:          "Kacang Jantan",
		Slug:          "kacang-jantan",
		SKU:           "KCG-001",
		Price:         decimal.NewFromInt(1500000),
		StockQuantity: 10,
		IsActive:      true,
	}
	testDB.Create(product)

	return testDB, repo, user, product
}

func TestCartRepository_CreateAndFindByUser(t *testing.T) {
	_, repo, user, _ := setupCartTest(t)

	cart := &model.Cart{UserID: &user.ID}
	require.NoError(t, repo.CreateCart(cart))
	assert.NotZero(t, cart.ID)

	found, err := repo.FindCartByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, found.ID)
}

func TestCartRepository_FindBySession(t *testing.T) {
	_, repo, _, _ := setupCartTest(t)

	sessionID := "session-123"
	cart := &model.Cart{SessionID: &sessionID}
	require.NoError(t, repo.CreateCart(cart))

	found, err := repo.FindCartBySessionID(sessionID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, found.ID)

	_, err = repo.FindCartBySessionID("unknown")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_ItemsArePreloaded(t *testing.T) {
	_, repo, user, product := setupCartTest(t)

	cart := &model.Cart{UserID: &user.ID}
	require.NoError(t, repo.CreateCart(cart))
	require.NoError(t, repo.CreateItem(&model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  2,
		Price:     product.Price,
	}))

	found, err := repo.FindCartByID(cart.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, product.ID, found.Items[0].Product.ID)
	assert.Equal(t, product.Name, found.Items[0].Product.Name)
}

func TestCartRepository_FindItemByCartAndProduct(t *testing.T) {
	_, repo, user, product := setupCartTest(t)

	cart := &model.Cart{UserID: &user.ID}
	require.NoError(t, repo.CreateCart(cart))
	item := &model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  1,
		Price:     product.Price,
	}
	require.NoError(t, repo.CreateItem(item))

	found, err := repo.FindItemByCartAndProduct(cart.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	_, err = repo.FindItemByCartAndProduct(cart.ID, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_DeleteCartRemovesItems(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)

	cart := &model.Cart{UserID: &user.ID}
	require.NoError(t, repo.CreateCart(cart))
	require.NoError(t, repo.CreateItem(&model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  1,
		Price:     product.Price,
	}))

	require.NoError(t, repo.DeleteCart(cart.ID))

	var carts, items int64
	testDB.Model(&model.Cart{}).Count(&carts)
	testDB.Model(&model.CartItem{}).Count(&items)
	assert.Zero(t, carts)
	assert.Zero(t, items)
}

func TestCartRepository_DeleteStaleGuestCarts(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)

	staleSession := "stale"
	freshSession := "fresh"
	stale := &model.Cart{SessionID: &staleSession}
	fresh := &model.Cart{SessionID: &freshSession}
	mine := &model.Cart{UserID: &user.ID}
	require.NoError(t, repo.CreateCart(stale))
	require.NoError(t, repo.CreateCart(fresh))
	require.NoError(t, repo.CreateCart(mine))
	require.NoError(t, repo.CreateItem(&model.CartItem{
		CartID:    stale.ID,
		ProductID: product.ID,
		Quantity:  1,
		Price:     product.Price,
	}))

	old := time.Now().Add(-48 * time.Hour)
	testDB.Model(&model.Cart{}).Where("id IN ?", []uint{stale.ID, mine.ID}).
		Update("updated_at", old)

	deleted, err := repo.DeleteStaleGuestCarts(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var remaining int64
	testDB.Model(&model.Cart{}).Count(&remaining)
	assert.EqualValues(t, 2, remaining)

	var orphanItems int64
	testDB.Model(&model.CartItem{}).Where("cart_id = ?", stale.ID).Count(&orphanItems)
	assert.Zero(t, orphanItems)
}
