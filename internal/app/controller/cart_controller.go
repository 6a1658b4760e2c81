package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/goatmart/goatmart-backend/internal/app/service"
	"github.com/goatmart/goatmart-backend/internal/middleware"
	"github.com/google/uuid"
)

// CartSessionHeader carries the anonymous cart session ID. The server
// assigns one on first use and echoes it back on every cart response.
const CartSessionHeader = "X-Cart-Session"

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

// cartIdentity resolves whose cart the request targets. Authenticated
// users get their own cart; guests are keyed by the session header, which
// is minted here when absent.
func (ctrl *CartController) cartIdentity(c *gin.Context) service.CartIdentity {
	if userID, exists := middleware.GetUserID(c); exists {
		return service.CartIdentity{UserID: &userID}
	}

	sessionID := c.GetHeader(CartSessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	c.Header(CartSessionHeader, sessionID)
	return service.CartIdentity{SessionID: sessionID}
}

// GetCart returns the caller's cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity := ctrl.cartIdentity(c)

	cart, err := ctrl.cartService.GetOrCreateCart(identity)
	if err != nil {
		log.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": identity.UserID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch cart",
		})
		return
	}

	log.Info("Cart fetched successfully", map[string]interface{}{
		"cart_id": cart.ID,
		"count":   len(cart.Items),
	})

	c.JSON(http.StatusOK, gin.H{
		"cart":     cart,
		"count":    cart.TotalItems(),
		"subtotal": cart.Subtotal(),
	})
}

// AddToCart adds a product to the cart
// POST /api/v1/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity := ctrl.cartIdentity(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	log.Debug("Adding item to cart", map[string]interface{}{
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	})

	cart, err := ctrl.cartService.AddItem(identity, req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found for cart", map[string]interface{}{
				"product_id": req.ProductID,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		if errors.Is(err, service.ErrProductUnavailable) {
			log.Warn("Product unavailable for cart", map[string]interface{}{
				"product_id": req.ProductID,
			})
			c.JSON(http.StatusConflict, gin.H{
				"error": "Product is out of stock",
			})
			return
		}
		log.Error("Failed to add item to cart", err, map[string]interface{}{
			"product_id": req.ProductID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to add item to cart",
		})
		return
	}

	log.Info("Item added to cart successfully", map[string]interface{}{
		"cart_id":    cart.ID,
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Item added to cart successfully",
		"cart":     cart,
		"count":    cart.TotalItems(),
		"subtotal": cart.Subtotal(),
	})
}

// UpdateCartItem updates cart item quantity
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity := ctrl.cartIdentity(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid cart item ID format", map[string]interface{}{
			"cart_item_id": idStr,
			"error":        err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cart item ID",
		})
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update cart request", map[string]interface{}{
			"cart_item_id": id,
			"error":        err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cart, err := ctrl.cartService.UpdateItemQuantity(identity, uint(id), *req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) || errors.Is(err, service.ErrCartItemNotFound) {
			log.Warn("Cart item not found", map[string]interface{}{
				"cart_item_id": id,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Cart item not found",
			})
			return
		}
		if errors.Is(err, service.ErrCartItemNotOwned) {
			log.Warn("Cart item belongs to another cart", map[string]interface{}{
				"cart_item_id": id,
			})
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Cart item belongs to another cart",
			})
			return
		}
		log.Error("Failed to update cart item", err, map[string]interface{}{
			"cart_item_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update cart item",
		})
		return
	}

	log.Info("Cart item updated successfully", map[string]interface{}{
		"cart_item_id": id,
		"quantity":     *req.Quantity,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":  "Cart item updated successfully",
		"cart":     cart,
		"count":    cart.TotalItems(),
		"subtotal": cart.Subtotal(),
	})
}

// RemoveFromCart removes an item from the cart
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity := ctrl.cartIdentity(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid cart item ID format", map[string]interface{}{
			"cart_item_id": idStr,
			"error":        err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cart item ID",
		})
		return
	}

	cart, err := ctrl.cartService.RemoveItem(identity, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) || errors.Is(err, service.ErrCartItemNotFound) {
			log.Warn("Cart item not found for removal", map[string]interface{}{
				"cart_item_id": id,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Cart item not found",
			})
			return
		}
		if errors.Is(err, service.ErrCartItemNotOwned) {
			log.Warn("Cart item belongs to another cart", map[string]interface{}{
				"cart_item_id": id,
			})
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Cart item belongs to another cart",
			})
			return
		}
		log.Error("Failed to remove cart item", err, map[string]interface{}{
			"cart_item_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to remove cart item",
		})
		return
	}

	log.Info("Cart item removed successfully", map[string]interface{}{
		"cart_item_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":  "Cart item removed successfully",
		"cart":     cart,
		"count":    cart.TotalItems(),
		"subtotal": cart.Subtotal(),
	})
}

// ClearCart removes every item from the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity := ctrl.cartIdentity(c)

	if err := ctrl.cartService.ClearCart(identity); err != nil {
		log.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": identity.UserID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear cart",
		})
		return
	}

	log.Info("Cart cleared successfully", map[string]interface{}{
		"user_id": identity.UserID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}
