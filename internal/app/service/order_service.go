package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/internal/app/repository"
	"github.com/goatmart/goatmart-backend/internal/events"
	"github.com/goatmart/goatmart-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderAccessDenied    = errors.New("order belongs to another user")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInsufficientStock    = errors.New("insufficient product stock")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidOrderStatus   = errors.New("invalid order status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
)

// VAT and flat shipping follow Indonesian storefront conventions: 11% PPN
// on the subtotal and a 50,000 IDR delivery fee.
var (
	taxRate        = decimal.NewFromFloat(0.11)
	shippingAmount = decimal.NewFromInt(50000)
)

const orderNumberAttempts = 5

// CheckoutInput carries everything the customer submits at checkout.
type CheckoutInput struct {
	ShippingAddress model.Address
	BillingAddress  *model.Address
	PaymentMethod   model.PaymentMethod
	Notes           string
}

type OrderService interface {
	PlaceOrder(ctx context.Context, userID uint, input CheckoutInput) (*model.Order, error)
	GetUserOrders(userID uint, limit, offset int) ([]model.Order, error)
	GetOrderByID(userID, orderID uint) (*model.Order, error)
	ListOrders(status string, limit, offset int) ([]model.Order, error)
	UpdateOrderStatus(orderID uint, status model.OrderStatus) error
	UpdatePaymentStatus(orderID uint, status model.PaymentStatus, reference string) error
}

type orderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	publisher events.Publisher
	db        *gorm.DB
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	publisher events.Publisher,
	db *gorm.DB,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		publisher: publisher,
		db:        db,
	}
}

// lockForUpdate takes a row lock on dialects that support it. SQLite, used
// in tests, serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// generateOrderNumber produces a GM-YYYYMMDD-XXXXXXXX number, retrying on
// the unlikely suffix collision.
func (s *orderService) generateOrderNumber() (string, error) {
	datePart := time.Now().Format("20060102")

	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
		orderNumber := fmt.Sprintf("GM-%s-%s", datePart, suffix)

		exists, err := s.orderRepo.ExistsByOrderNumber(orderNumber)
		if err != nil {
			return "", err
		}
		if !exists {
			return orderNumber, nil
		}

		logger.Warn("Order number collision, retrying", map[string]interface{}{
			"order_number": orderNumber,
			"attempt":      attempt + 1,
		})
	}

	return "", fmt.Errorf("could not generate a unique order number after %d attempts", orderNumberAttempts)
}

// PlaceOrder converts the user's cart into an order inside a single
// transaction: stock is checked and decremented under row locks, the order
// and its item snapshots are written, and the cart is destroyed. Any failure
// rolls everything back. The completion event fires only after commit.
func (s *orderService) PlaceOrder(ctx context.Context, userID uint, input CheckoutInput) (*model.Order, error) {
	logger.Info("Placing order", map[string]interface{}{
		"user_id":        userID,
		"payment_method": input.PaymentMethod,
	})

	if !input.PaymentMethod.IsValid() {
		logger.Warn("Checkout rejected: invalid payment method", map[string]interface{}{
			"user_id":        userID,
			"payment_method": input.PaymentMethod,
		})
		return nil, ErrInvalidPaymentMethod
	}

	cart, err := s.cartRepo.FindCartByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Checkout rejected: no cart", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrEmptyCart
		}
		logger.Error("Failed to fetch cart for checkout", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if len(cart.Items) == 0 {
		logger.Warn("Checkout rejected: cart is empty", map[string]interface{}{
			"user_id": userID,
			"cart_id": cart.ID,
		})
		return nil, ErrEmptyCart
	}

	orderNumber, err := s.generateOrderNumber()
	if err != nil {
		logger.Error("Failed to generate order number", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during checkout, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
		}
	}()

	// Re-resolve the cart under the transaction. A concurrent checkout that
	// already consumed this cart must fail here, not sell the items twice.
	var lockedCart model.Cart
	if err := lockForUpdate(tx).First(&lockedCart, cart.ID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Checkout rejected: cart already consumed", map[string]interface{}{
				"user_id": userID,
				"cart_id": cart.ID,
			})
			return nil, ErrEmptyCart
		}
		logger.Error("Failed to lock cart for checkout", err, map[string]interface{}{
			"user_id": userID,
			"cart_id": cart.ID,
		})
		return nil, err
	}

	subtotal := decimal.Zero
	orderItems := make([]model.OrderItem, 0, len(cart.Items))

	for _, cartItem := range cart.Items {
		var product model.Product
		if err := lockForUpdate(tx).First(&product, cartItem.ProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Product vanished during checkout", map[string]interface{}{
					"user_id":    userID,
					"product_id": cartItem.ProductID,
				})
				return nil, ErrProductNotFound
			}
			logger.Error("Failed to fetch product during checkout", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": cartItem.ProductID,
			})
			return nil, err
		}

		// Preorder items are not backed by stock on hand.
		if !cartItem.IsPreorder {
			if product.StockQuantity < cartItem.Quantity {
				tx.Rollback()
				logger.Warn("Checkout failed: insufficient stock", map[string]interface{}{
					"user_id":    userID,
					"product_id": cartItem.ProductID,
					"requested":  cartItem.Quantity,
					"available":  product.StockQuantity,
				})
				return nil, ErrInsufficientStock
			}

			if err := tx.Model(&model.Product{}).
				Where("id = ?", product.ID).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", cartItem.Quantity)).Error; err != nil {
				tx.Rollback()
				logger.Error("Failed to decrement product stock", err, map[string]interface{}{
					"user_id":    userID,
					"product_id": product.ID,
				})
				return nil, err
			}
		}

		lineTotal := cartItem.Price.Mul(decimal.NewFromInt(int64(cartItem.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		orderItems = append(orderItems, model.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			ProductSKU:  product.SKU,
			Quantity:    cartItem.Quantity,
			Price:       cartItem.Price,
			Total:       lineTotal,
			IsPreorder:  cartItem.IsPreorder,
		})
	}

	tax := subtotal.Mul(taxRate).Round(2)
	total := subtotal.Add(tax).Add(shippingAmount)

	billing := input.ShippingAddress
	if input.BillingAddress != nil {
		billing = *input.BillingAddress
	}

	order := &model.Order{
		UserID:          userID,
		OrderNumber:     orderNumber,
		Status:          model.OrderStatusPending,
		Subtotal:        subtotal,
		TaxAmount:       tax,
		ShippingAmount:  shippingAmount,
		TotalAmount:     total,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  billing,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   model.PaymentStatusPending,
		Notes:           input.Notes,
		OrderItems:      orderItems,
	}

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id":      userID,
			"order_number": orderNumber,
		})
		return nil, err
	}

	if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to clear cart items after checkout", err, map[string]interface{}{
			"user_id": userID,
			"cart_id": cart.ID,
		})
		return nil, err
	}

	res := tx.Delete(&model.Cart{}, cart.ID)
	if res.Error != nil {
		tx.Rollback()
		logger.Error("Failed to delete cart after checkout", res.Error, map[string]interface{}{
			"user_id": userID,
			"cart_id": cart.ID,
		})
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// The cart vanished between the lock and the delete. Should be
		// unreachable under the row lock, but never commit a double sale.
		tx.Rollback()
		logger.Warn("Checkout rejected: cart already consumed", map[string]interface{}{
			"user_id": userID,
			"cart_id": cart.ID,
		})
		return nil, ErrEmptyCart
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit checkout transaction", err, map[string]interface{}{
			"user_id":      userID,
			"order_number": orderNumber,
		})
		return nil, err
	}

	logger.Info("Order placed successfully", map[string]interface{}{
		"user_id":      userID,
		"order_id":     order.ID,
		"order_number": orderNumber,
		"subtotal":     subtotal,
		"tax_amount":   tax,
		"total_amount": total,
		"item_count":   len(orderItems),
	})

	if s.publisher != nil {
		event := events.OrderCompleted{
			OrderID:     order.ID,
			OrderNumber: orderNumber,
			UserID:      userID,
			TotalAmount: total,
			CompletedAt: time.Now(),
		}
		if err := s.publisher.PublishOrderCompleted(ctx, event); err != nil {
			// The order is committed; event delivery failures must not
			// surface to the customer.
			logger.Error("Failed to publish order completed event", err, map[string]interface{}{
				"order_id": order.ID,
			})
		}
	}

	return s.orderRepo.FindByID(order.ID)
}

func (s *orderService) GetUserOrders(userID uint, limit, offset int) ([]model.Order, error) {
	logger.Debug("Fetching user orders", map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
		"offset":  offset,
	})

	orders, err := s.orderRepo.FindByUserID(userID, limit, offset)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("User orders fetched successfully", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (s *orderService) GetOrderByID(userID, orderID uint) (*model.Order, error) {
	logger.Debug("Fetching order by ID", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Order not found", map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
			})
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		})
		return nil, err
	}

	if order.UserID != userID {
		logger.Warn("Order access denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderAccessDenied
	}

	logger.Debug("Order fetched successfully", map[string]interface{}{
		"user_id":        userID,
		"order_id":       orderID,
		"order_status":   order.Status,
		"payment_status": order.PaymentStatus,
	})
	return order, nil
}

func (s *orderService) ListOrders(status string, limit, offset int) ([]model.Order, error) {
	logger.Debug("Listing orders", map[string]interface{}{
		"status": status,
		"limit":  limit,
		"offset": offset,
	})

	if status != "" && !model.OrderStatus(status).IsValid() {
		return nil, ErrInvalidOrderStatus
	}

	orders, err := s.orderRepo.FindAll(status, limit, offset)
	if err != nil {
		logger.Error("Failed to list orders", err, map[string]interface{}{
			"status": status,
		})
		return nil, err
	}

	return orders, nil
}

func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus) error {
	logger.Info("Updating order status", map[string]interface{}{
		"order_id":   orderID,
		"new_status": status,
	})

	if !status.IsValid() {
		logger.Warn("Rejected invalid order status", map[string]interface{}{
			"order_id": orderID,
			"status":   status,
		})
		return ErrInvalidOrderStatus
	}

	if _, err := s.orderRepo.FindByID(orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	if err := s.orderRepo.UpdateStatus(orderID, status); err != nil {
		logger.Error("Failed to update order status", err, map[string]interface{}{
			"order_id":   orderID,
			"new_status": status,
		})
		return err
	}

	logger.Info("Order status updated successfully", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	return nil
}

func (s *orderService) UpdatePaymentStatus(orderID uint, status model.PaymentStatus, reference string) error {
	logger.Info("Updating payment status", map[string]interface{}{
		"order_id":   orderID,
		"new_status": status,
	})

	if !status.IsValid() {
		logger.Warn("Rejected invalid payment status", map[string]interface{}{
			"order_id": orderID,
			"status":   status,
		})
		return ErrInvalidPaymentStatus
	}

	if _, err := s.orderRepo.FindByID(orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	if err := s.orderRepo.UpdatePaymentStatus(orderID, status, reference); err != nil {
		logger.Error("Failed to update payment status", err, map[string]interface{}{
			"order_id":   orderID,
			"new_status": status,
		})
		return err
	}

	logger.Info("Payment status updated successfully", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	return nil
}
