package repository

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/internal/db"
)

func setupOrderTest(t *testing.T) (*gorm.DB, OrderRepository, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	repo := NewOrderRepository(testDB)

	user := &model.User{
		Email:        "order@example.com",
		PasswordHash: "hash",
		Name:         "Order Tester",
		Role:         model.RoleCustomer,
	}
	testDB.Create(user)

	category := &model.Category{Name: "Kambing Boer", Slug: "kambing-boer"}
	testDB.Create(category)

	product := &model.Product{
		CategoryID:    category.ID,
		Name:          "Boer Jantan",
		Slug:          "boer-jantan",
		SKU:           "BOR-001",
		Price:         decimal.NewFromInt(4000000),
		StockQuantity: 10,
		IsActive:      true,
	}
	testDB.Create(product)

	return testDB, repo, user, product
}

func buildTestOrder(userID, productID uint, orderNumber string) *model.Order {
	subtotal := decimal.NewFromInt(4000000)
	tax := decimal.NewFromInt(440000)
	shipping := decimal.NewFromInt(50000)
	address := model.Address{
		Name:       "Order Tester",
		Street:     "Jl. Ternak No. 5",
		City:       "Bandung",
		State:      "Jawa Barat",
		PostalCode: "40123",
		Phone:      "081200000000",
	}
	return &model.Order{
		UserID:          userID,
		OrderNumber:     orderNumber,
		Status:          model.OrderStatusPending,
		Subtotal:        subtotal,
		TaxAmount:       tax,
		ShippingAmount:  shipping,
		TotalAmount:     subtotal.Add(tax).Add(shipping),
		ShippingAddress: address,
		BillingAddress:  address,
		PaymentMethod:   model.PaymentBankTransfer,
		PaymentStatus:   model.PaymentStatusPending,
		OrderItems: []model.OrderItem{
			{
				ProductID:   productID,
				ProductName: "Boer Jantan",
				ProductSKU:  "BOR-001",
				Quantity:    1,
				Price:       subtotal,
				Total:       subtotal,
			},
		},
	}
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	_, repo, user, product := setupOrderTest(t)

	order := buildTestOrder(user.ID, product.ID, "GM-20260830-AAAA1111")
	require.NoError(t, repo.Create(order))
	assert.NotZero(t, order.ID)

	found, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, found.OrderNumber)
	require.Len(t, found.OrderItems, 1)
	assert.Equal(t, product.ID, found.OrderItems[0].Product.ID)

	byNumber, err := repo.FindByOrderNumber(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)
}

func TestOrderRepository_ExistsByOrderNumber(t *testing.T) {
	_, repo, user, product := setupOrderTest(t)

	exists, err := repo.ExistsByOrderNumber("GM-20260830-BBBB2222")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(buildTestOrder(user.ID, product.ID, "GM-20260830-BBBB2222")))

	exists, err = repo.ExistsByOrderNumber("GM-20260830-BBBB2222")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOrderRepository_FindByUserID_Pagination(t *testing.T) {
	_, repo, user, product := setupOrderTest(t)

	for i := 0; i < 5; i++ {
		order := buildTestOrder(user.ID, product.ID, fmt.Sprintf("GM-20260830-PAGE000%d", i))
		require.NoError(t, repo.Create(order))
	}

	page, err := repo.FindByUserID(user.ID, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := repo.FindByUserID(user.ID, 10, 4)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestOrderRepository_FindAll_StatusFilter(t *testing.T) {
	testDB, repo, user, product := setupOrderTest(t)

	first := buildTestOrder(user.ID, product.ID, "GM-20260830-CCCC0001")
	second := buildTestOrder(user.ID, product.ID, "GM-20260830-CCCC0002")
	require.NoError(t, repo.Create(first))
	require.NoError(t, repo.Create(second))
	testDB.Model(&model.Order{}).Where("id = ?", second.ID).
		Update("status", model.OrderStatusShipped)

	all, err := repo.FindAll("", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	shipped, err := repo.FindAll(string(model.OrderStatusShipped), 10, 0)
	require.NoError(t, err)
	require.Len(t, shipped, 1)
	assert.Equal(t, second.ID, shipped[0].ID)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	testDB, repo, user, product := setupOrderTest(t)

	order := buildTestOrder(user.ID, product.ID, "GM-20260830-DDDD0001")
	require.NoError(t, repo.Create(order))

	require.NoError(t, repo.UpdateStatus(order.ID, model.OrderStatusDelivered))

	var updated model.Order
	require.NoError(t, testDB.First(&updated, order.ID).Error)
	assert.Equal(t, model.OrderStatusDelivered, updated.Status)
}

func TestOrderRepository_UpdatePaymentStatus(t *testing.T) {
	testDB, repo, user, product := setupOrderTest(t)

	order := buildTestOrder(user.ID, product.ID, "GM-20260830-EEEE0001")
	require.NoError(t, repo.Create(order))

	require.NoError(t, repo.UpdatePaymentStatus(order.ID, model.PaymentStatusPaid, "TRX-789"))

	var updated model.Order
	require.NoError(t, testDB.First(&updated, order.ID).Error)
	assert.Equal(t, model.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, "TRX-789", updated.PaymentReference)

	// Empty reference leaves the stored one alone
	require.NoError(t, repo.UpdatePaymentStatus(order.ID, model.PaymentStatusRefunded, ""))
	require.NoError(t, testDB.First(&updated, order.ID).Error)
	assert.Equal(t, model.PaymentStatusRefunded, updated.PaymentStatus)
	assert.Equal(t, "TRX-789", updated.PaymentReference)
}
