package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/internal/app/repository"
	"github.com/goatmart/goatmart-backend/internal/db"
)

func setupCartServiceTest(t *testing.T) (CartService, *gorm.DB, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartService := NewCartService(cartRepo, productRepo)

	user := &model.User{
		Email:        "shopper@example.com",
		PasswordHash: "hash",
		Name:         "Dewi Lestari",
		Role:         model.RoleCustomer,
	}
	testDB.Create(user)

	category := &model.Category{Name: "Kambing Boer", Slug: "kambing-boer"}
	testDB.Create(category)

	product := &model.Product{
		CategoryID:    category.ID,
		Name:          "Boer Jantan Dewasa",
		Slug:          "boer-jantan-dewasa",
		SKU:           "BOR-100",
		Price:         decimal.NewFromInt(4500000),
		StockQuantity: 10,
		IsActive:      true,
	}
	testDB.Create(product)

	return cartService, testDB, user, product
}

func userIdentity(userID uint) CartIdentity {
	return CartIdentity{UserID: &userID}
}

func guestIdentity(sessionID string) CartIdentity {
	return CartIdentity{SessionID: sessionID}
}

func TestCartService_GetOrCreateCart_Idempotent(t *testing.T) {
	cartService, _, user, _ := setupCartServiceTest(t)

	first, err := cartService.GetOrCreateCart(userIdentity(user.ID))
	require.NoError(t, err)

	second, err := cartService.GetOrCreateCart(userIdentity(user.ID))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestCartService_GetOrCreateCart_GuestSession(t *testing.T) {
	cartService, _, _, _ := setupCartServiceTest(t)

	cart, err := cartService.GetOrCreateCart(guestIdentity("session-abc"))
	require.NoError(t, err)
	require.NotNil(t, cart.SessionID)
	assert.Equal(t, "session-abc", *cart.SessionID)
	assert.Nil(t, cart.UserID)

	other, err := cartService.GetOrCreateCart(guestIdentity("session-xyz"))
	require.NoError(t, err)
	assert.NotEqual(t, cart.ID, other.ID)
}

func TestCartService_AddItem_CapturesCurrentPrice(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(userIdentity(user.ID), product.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, product.Price.Equal(cart.Items[0].Price))
	assert.Equal(t, 2, cart.Items[0].Quantity)

	// Price changes after the item is in the cart do not retroactively apply
	testDB.Model(&model.Product{}).Where("id = ?", product.ID).
		Update("price", decimal.NewFromInt(9999999))

	cart, err = cartService.AddItem(userIdentity(user.ID), product.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, product.Price.Equal(cart.Items[0].Price))
}

func TestCartService_AddItem_UsesSalePrice(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	sale := decimal.NewFromInt(4000000)
	testDB.Model(&model.Product{}).Where("id = ?", product.ID).Update("sale_price", sale)

	cart, err := cartService.AddItem(userIdentity(user.ID), product.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, sale.Equal(cart.Items[0].Price))
}

func TestCartService_AddItem_SoldOut(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	testDB.Model(&model.Product{}).Where("id = ?", product.ID).Update("stock_quantity", 0)

	cart, err := cartService.AddItem(userIdentity(user.ID), product.ID, 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)
	assert.Nil(t, cart)
}

func TestCartService_AddItem_InactiveProduct(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	testDB.Model(&model.Product{}).Where("id = ?", product.ID).Update("is_active", false)

	cart, err := cartService.AddItem(userIdentity(user.ID), product.ID, 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)
	assert.Nil(t, cart)
}

func TestCartService_AddItem_PreorderFlag(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	testDB.Model(&model.Product{}).Where("id = ?", product.ID).
		Updates(map[string]interface{}{"stock_quantity": 0, "allow_preorder": true})

	cart, err := cartService.AddItem(userIdentity(user.ID), product.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Items[0].IsPreorder)
}

func TestCartService_AddItem_ProductNotFound(t *testing.T) {
	cartService, _, user, _ := setupCartServiceTest(t)

	cart, err := cartService.AddItem(userIdentity(user.ID), 999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, cart)
}

func TestCartService_UpdateItemQuantity(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(userIdentity(user.ID), product.ID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = cartService.UpdateItemQuantity(userIdentity(user.ID), itemID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	// Zero removes the line
	cart, err = cartService.UpdateItemQuantity(userIdentity(user.ID), itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_UpdateItemQuantity_ForeignItem(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(userIdentity(user.ID), product.ID, 1)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	other := &model.User{
		Email:        "other@example.com",
		PasswordHash: "hash",
		Name:         "Agus",
		Role:         model.RoleCustomer,
	}
	testDB.Create(other)
	_, err = cartService.GetOrCreateCart(userIdentity(other.ID))
	require.NoError(t, err)

	updated, err := cartService.UpdateItemQuantity(userIdentity(other.ID), itemID, 3)
	assert.ErrorIs(t, err, ErrCartItemNotOwned)
	assert.Nil(t, updated)
}

func TestCartService_UpdateItemQuantity_CallerWithoutCart(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(userIdentity(user.ID), product.ID, 1)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	// A session that never created a cart cannot own the item either.
	updated, err := cartService.UpdateItemQuantity(guestIdentity("fresh-session"), itemID, 3)
	assert.ErrorIs(t, err, ErrCartItemNotOwned)
	assert.Nil(t, updated)
}

func TestCartService_RemoveItem(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(userIdentity(user.ID), product.ID, 1)
	require.NoError(t, err)

	cart, err = cartService.RemoveItem(userIdentity(user.ID), cart.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_RemoveItem_NotFound(t *testing.T) {
	cartService, _, user, _ := setupCartServiceTest(t)

	_, err := cartService.GetOrCreateCart(userIdentity(user.ID))
	require.NoError(t, err)

	cart, err := cartService.RemoveItem(userIdentity(user.ID), 999)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
	assert.Nil(t, cart)
}

func TestCartService_ClearCart(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	_, err := cartService.AddItem(userIdentity(user.ID), product.ID, 2)
	require.NoError(t, err)

	require.NoError(t, cartService.ClearCart(userIdentity(user.ID)))

	var itemCount int64
	testDB.Model(&model.CartItem{}).Count(&itemCount)
	assert.Zero(t, itemCount)

	// Clearing a cart that does not exist is a no-op
	assert.NoError(t, cartService.ClearCart(guestIdentity("never-seen")))
}

func TestCartService_MergeGuestCart(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	category := &model.Category{Name: "Kambing Kacang", Slug: "kambing-kacang"}
	testDB.Create(category)
	second := &model.Product{
		CategoryID:    category.ID,
		Name:          "Kacang Betina",
		Slug:          "kacang-betina",
		SKU:           "KCG-100",
		Price:         decimal.NewFromInt(1500000),
		StockQuantity: 8,
		IsActive:      true,
	}
	testDB.Create(second)

	// User already has the first product at its original price
	userCart, err := cartService.AddItem(userIdentity(user.ID), product.ID, 1)
	require.NoError(t, err)
	userPrice := userCart.Items[0].Price

	// Guest holds the same product (different captured price) plus another
	guest := guestIdentity("guest-session")
	testDB.Model(&model.Product{}).Where("id = ?", product.ID).
		Update("price", decimal.NewFromInt(4800000))
	_, err = cartService.AddItem(guest, product.ID, 2)
	require.NoError(t, err)
	_, err = cartService.AddItem(guest, second.ID, 1)
	require.NoError(t, err)

	require.NoError(t, cartService.MergeGuestCart(user.ID, "guest-session"))

	merged, err := cartService.GetOrCreateCart(userIdentity(user.ID))
	require.NoError(t, err)
	require.Len(t, merged.Items, 2)

	byProduct := make(map[uint]model.CartItem)
	for _, item := range merged.Items {
		byProduct[item.ProductID] = item
	}
	assert.Equal(t, 3, byProduct[product.ID].Quantity)
	assert.True(t, userPrice.Equal(byProduct[product.ID].Price), "user cart price wins on merge")
	assert.Equal(t, 1, byProduct[second.ID].Quantity)

	// Guest cart is gone
	var guestCarts int64
	testDB.Model(&model.Cart{}).Where("session_id = ?", "guest-session").Count(&guestCarts)
	assert.Zero(t, guestCarts)
}

func TestCartService_MergeGuestCart_NoGuestCart(t *testing.T) {
	cartService, _, user, _ := setupCartServiceTest(t)

	assert.NoError(t, cartService.MergeGuestCart(user.ID, "no-such-session"))
	assert.NoError(t, cartService.MergeGuestCart(user.ID, ""))
}

func TestCartService_PurgeStaleGuestCarts(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	_, err := cartService.AddItem(guestIdentity("stale-session"), product.ID, 1)
	require.NoError(t, err)
	_, err = cartService.AddItem(guestIdentity("fresh-session"), product.ID, 1)
	require.NoError(t, err)
	_, err = cartService.AddItem(userIdentity(user.ID), product.ID, 1)
	require.NoError(t, err)

	// Age one guest cart past the cutoff
	old := time.Now().Add(-60 * 24 * time.Hour)
	testDB.Model(&model.Cart{}).Where("session_id = ?", "stale-session").
		Update("updated_at", old)

	purged, err := cartService.PurgeStaleGuestCarts(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	var remaining int64
	testDB.Model(&model.Cart{}).Count(&remaining)
	assert.EqualValues(t, 2, remaining)

	// User carts are never purged regardless of age
	testDB.Model(&model.Cart{}).Where("user_id = ?", user.ID).Update("updated_at", old)
	purged, err = cartService.PurgeStaleGuestCarts(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Zero(t, purged)
}
