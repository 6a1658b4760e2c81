package repository

import (
	"time"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	CreateCart(cart *model.Cart) error
	FindCartByID(id uint) (*model.Cart, error)
	FindCartByUserID(userID uint) (*model.Cart, error)
	FindCartBySessionID(sessionID string) (*model.Cart, error)
	DeleteCart(id uint) error
	DeleteStaleGuestCarts(before time.Time) (int64, error)

	CreateItem(item *model.CartItem) error
	FindItemByID(id uint) (*model.CartItem, error)
	FindItemByCartAndProduct(cartID, productID uint) (*model.CartItem, error)
	UpdateItem(item *model.CartItem) error
	DeleteItem(id uint) error
	DeleteItemsByCartID(cartID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) preloadCart() *gorm.DB {
	return r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.created_at ASC")
	}).Preload("Items.Product")
}

func (r *cartRepository) CreateCart(cart *model.Cart) error {
	logger.Debug("Creating cart in database", map[string]interface{}{
		"user_id":    cart.UserID,
		"session_id": cart.SessionID,
	})

	if err := r.db.Create(cart).Error; err != nil {
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"user_id":    cart.UserID,
			"session_id": cart.SessionID,
		})
		return err
	}

	logger.Debug("Cart created in database", map[string]interface{}{
		"cart_id": cart.ID,
	})
	return nil
}

func (r *cartRepository) FindCartByID(id uint) (*model.Cart, error) {
	logger.Debug("Finding cart by ID in database", map[string]interface{}{
		"cart_id": id,
	})

	var cart model.Cart
	if err := r.preloadCart().First(&cart, id).Error; err != nil {
		logger.Error("Failed to find cart by ID in database", err, map[string]interface{}{
			"cart_id": id,
		})
		return nil, err
	}

	logger.Debug("Cart found by ID in database", map[string]interface{}{
		"cart_id":    cart.ID,
		"item_count": len(cart.Items),
	})
	return &cart, nil
}

func (r *cartRepository) FindCartByUserID(userID uint) (*model.Cart, error) {
	logger.Debug("Finding cart by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cart model.Cart
	if err := r.preloadCart().Where("user_id = ?", userID).First(&cart).Error; err != nil {
		logger.Error("Failed to find cart by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Cart found by user ID in database", map[string]interface{}{
		"cart_id":    cart.ID,
		"user_id":    userID,
		"item_count": len(cart.Items),
	})
	return &cart, nil
}

func (r *cartRepository) FindCartBySessionID(sessionID string) (*model.Cart, error) {
	logger.Debug("Finding cart by session ID in database", map[string]interface{}{
		"session_id": sessionID,
	})

	var cart model.Cart
	if err := r.preloadCart().Where("session_id = ?", sessionID).First(&cart).Error; err != nil {
		logger.Error("Failed to find cart by session ID in database", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return nil, err
	}

	logger.Debug("Cart found by session ID in database", map[string]interface{}{
		"cart_id":    cart.ID,
		"item_count": len(cart.Items),
	})
	return &cart, nil
}

func (r *cartRepository) DeleteCart(id uint) error {
	logger.Debug("Deleting cart from database", map[string]interface{}{
		"cart_id": id,
	})

	if err := r.db.Where("cart_id = ?", id).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items from database", err, map[string]interface{}{
			"cart_id": id,
		})
		return err
	}

	if err := r.db.Delete(&model.Cart{}, id).Error; err != nil {
		logger.Error("Failed to delete cart from database", err, map[string]interface{}{
			"cart_id": id,
		})
		return err
	}

	logger.Debug("Cart deleted from database", map[string]interface{}{
		"cart_id": id,
	})
	return nil
}

// DeleteStaleGuestCarts removes anonymous carts not touched since the cutoff.
// User carts are never purged.
func (r *cartRepository) DeleteStaleGuestCarts(before time.Time) (int64, error) {
	logger.Debug("Deleting stale guest carts from database", map[string]interface{}{
		"before": before,
	})

	var cartIDs []uint
	if err := r.db.Model(&model.Cart{}).
		Where("user_id IS NULL AND updated_at < ?", before).
		Pluck("id", &cartIDs).Error; err != nil {
		logger.Error("Failed to find stale guest carts in database", err, map[string]interface{}{
			"before": before,
		})
		return 0, err
	}

	if len(cartIDs) == 0 {
		return 0, nil
	}

	if err := r.db.Where("cart_id IN ?", cartIDs).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete stale guest cart items from database", err, map[string]interface{}{
			"cart_count": len(cartIDs),
		})
		return 0, err
	}

	result := r.db.Where("id IN ?", cartIDs).Delete(&model.Cart{})
	if result.Error != nil {
		logger.Error("Failed to delete stale guest carts from database", result.Error, map[string]interface{}{
			"cart_count": len(cartIDs),
		})
		return 0, result.Error
	}

	logger.Debug("Stale guest carts deleted from database", map[string]interface{}{
		"deleted": result.RowsAffected,
	})
	return result.RowsAffected, nil
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"cart_id":    item.CartID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})

	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
			"quantity":   item.Quantity,
		})
		return err
	}

	logger.Debug("Cart item created in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      item.CartID,
		"product_id":   item.ProductID,
	})
	return nil
}

func (r *cartRepository) FindItemByID(id uint) (*model.CartItem, error) {
	logger.Debug("Finding cart item by ID in database", map[string]interface{}{
		"cart_item_id": id,
	})

	var item model.CartItem
	if err := r.db.Preload("Product").First(&item, id).Error; err != nil {
		logger.Error("Failed to find cart item by ID in database", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return nil, err
	}

	logger.Debug("Cart item found by ID in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      item.CartID,
		"product_id":   item.ProductID,
	})
	return &item, nil
}

func (r *cartRepository) FindItemByCartAndProduct(cartID, productID uint) (*model.CartItem, error) {
	logger.Debug("Finding cart item by cart and product in database", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
	})

	var item model.CartItem
	if err := r.db.Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error; err != nil {
		logger.Error("Failed to find cart item by cart and product in database", err, map[string]interface{}{
			"cart_id":    cartID,
			"product_id": productID,
		})
		return nil, err
	}

	logger.Debug("Cart item found by cart and product in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      cartID,
		"product_id":   productID,
	})
	return &item, nil
}

func (r *cartRepository) UpdateItem(item *model.CartItem) error {
	logger.Debug("Updating cart item in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      item.CartID,
		"quantity":     item.Quantity,
	})

	if err := r.db.Save(item).Error; err != nil {
		logger.Error("Failed to update cart item in database", err, map[string]interface{}{
			"cart_item_id": item.ID,
			"cart_id":      item.CartID,
		})
		return err
	}

	logger.Debug("Cart item updated in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      item.CartID,
	})
	return nil
}

func (r *cartRepository) DeleteItem(id uint) error {
	logger.Debug("Deleting cart item from database", map[string]interface{}{
		"cart_item_id": id,
	})

	if err := r.db.Delete(&model.CartItem{}, id).Error; err != nil {
		logger.Error("Failed to delete cart item from database", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return err
	}

	logger.Debug("Cart item deleted from database", map[string]interface{}{
		"cart_item_id": id,
	})
	return nil
}

func (r *cartRepository) DeleteItemsByCartID(cartID uint) error {
	logger.Debug("Deleting cart items by cart ID from database", map[string]interface{}{
		"cart_id": cartID,
	})

	if err := r.db.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items by cart ID from database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}

	logger.Debug("Cart items deleted by cart ID from database", map[string]interface{}{
		"cart_id": cartID,
	})
	return nil
}
