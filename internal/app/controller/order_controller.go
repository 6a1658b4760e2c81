package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/internal/app/service"
	apperrors "github.com/goatmart/goatmart-backend/internal/errors"
	"github.com/goatmart/goatmart-backend/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type AddressRequest struct {
	Name       string `json:"name" binding:"required"`
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
}

func (req *AddressRequest) toAddress() model.Address {
	return model.Address{
		Name:       req.Name,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
	}
}

type CheckoutRequest struct {
	ShippingAddress AddressRequest  `json:"shipping_address" binding:"required"`
	BillingAddress  *AddressRequest `json:"billing_address"`
	PaymentMethod   string          `json:"payment_method" binding:"required"`
	Notes           string          `json:"notes"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	Status    string `json:"status" binding:"required"`
	Reference string `json:"reference"`
}

// Checkout converts the authenticated user's cart into an order
// POST /api/v1/orders/checkout
func (ctrl *OrderController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "The given checkout details are invalid")
		return
	}

	input := service.CheckoutInput{
		ShippingAddress: req.ShippingAddress.toAddress(),
		PaymentMethod:   model.PaymentMethod(req.PaymentMethod),
		Notes:           req.Notes,
	}
	if req.BillingAddress != nil {
		billing := req.BillingAddress.toAddress()
		input.BillingAddress = &billing
	}

	log.Debug("Processing checkout", map[string]interface{}{
		"user_id":        userID,
		"payment_method": req.PaymentMethod,
	})

	order, err := ctrl.orderService.PlaceOrder(c.Request.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPaymentMethod):
			apperrors.BadRequest(c, apperrors.OrderInvalidPaymentMethod, "The selected payment method is not supported")
		case errors.Is(err, service.ErrEmptyCart):
			apperrors.BadRequest(c, apperrors.CartEmpty, "Your cart is empty")
		case errors.Is(err, service.ErrInsufficientStock):
			apperrors.Conflict(c, apperrors.OrderOutOfStock, "One or more items in your cart are no longer in stock")
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.Conflict(c, apperrors.OrderOutOfStock, "One or more items in your cart are no longer available")
		default:
			log.Error("Checkout failed", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	log.Info("Order placed successfully", map[string]interface{}{
		"user_id":      userID,
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// ListMyOrders returns the authenticated user's order history
// GET /api/v1/orders
func (ctrl *OrderController) ListMyOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	limit, offset := parsePagination(c)

	orders, err := ctrl.orderService.GetUserOrders(userID, limit, offset)
	if err != nil {
		log.Error("Failed to list orders", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
	})
}

// GetOrder returns one of the authenticated user's orders
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid order ID")
		return
	}

	order, err := ctrl.orderService.GetOrderByID(userID, uint(orderID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrOrderAccessDenied):
			apperrors.Forbidden(c, "You do not have access to this order")
		default:
			log.Error("Failed to fetch order", err, map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// ListOrders returns all orders, optionally filtered by status (admin only)
// GET /api/v1/admin/orders
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	limit, offset := parsePagination(c)
	status := c.Query("status")

	orders, err := ctrl.orderService.ListOrders(status, limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrderStatus) {
			apperrors.BadRequest(c, apperrors.OrderInvalidStatus, "Unknown order status filter")
			return
		}
		log.Error("Failed to list orders", err, map[string]interface{}{
			"status": status,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
	})
}

// UpdateOrderStatus moves an order to a new fulfilment status (admin only)
// PUT /api/v1/admin/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid order ID")
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "The given status is invalid")
		return
	}

	if err := ctrl.orderService.UpdateOrderStatus(uint(orderID), model.OrderStatus(req.Status)); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrInvalidOrderStatus):
			apperrors.BadRequest(c, apperrors.OrderInvalidStatus, "Unknown order status")
		default:
			log.Error("Failed to update order status", err, map[string]interface{}{
				"order_id": orderID,
				"status":   req.Status,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	log.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   req.Status,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
	})
}

// UpdatePaymentStatus records the outcome of a payment (admin only)
// PUT /api/v1/admin/orders/:id/payment
func (ctrl *OrderController) UpdatePaymentStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid order ID")
		return
	}

	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "The given payment status is invalid")
		return
	}

	if err := ctrl.orderService.UpdatePaymentStatus(uint(orderID), model.PaymentStatus(req.Status), req.Reference); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrInvalidPaymentStatus):
			apperrors.BadRequest(c, apperrors.OrderInvalidStatus, "Unknown payment status")
		default:
			log.Error("Failed to update payment status", err, map[string]interface{}{
				"order_id": orderID,
				"status":   req.Status,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	log.Info("Payment status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   req.Status,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment status updated successfully",
	})
}

// parsePagination reads limit/offset query parameters with sane bounds.
func parsePagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
