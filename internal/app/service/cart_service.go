package service

import (
	"errors"
	"time"

	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/internal/app/repository"
	"github.com/goatmart/goatmart-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartNotFound       = errors.New("cart not found")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrCartItemNotOwned   = errors.New("cart item belongs to another cart")
	ErrProductUnavailable = errors.New("product is out of stock")
)

// CartIdentity identifies whose cart an operation targets: a registered
// user or an anonymous session, never both.
type CartIdentity struct {
	UserID    *uint
	SessionID string
}

type CartService interface {
	GetOrCreateCart(identity CartIdentity) (*model.Cart, error)
	AddItem(identity CartIdentity, productID uint, quantity int) (*model.Cart, error)
	UpdateItemQuantity(identity CartIdentity, itemID uint, quantity int) (*model.Cart, error)
	RemoveItem(identity CartIdentity, itemID uint) (*model.Cart, error)
	ClearCart(identity CartIdentity) error
	MergeGuestCart(userID uint, sessionID string) error
	PurgeStaleGuestCarts(olderThan time.Duration) (int64, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) findCart(identity CartIdentity) (*model.Cart, error) {
	if identity.UserID != nil {
		return s.cartRepo.FindCartByUserID(*identity.UserID)
	}
	return s.cartRepo.FindCartBySessionID(identity.SessionID)
}

// GetOrCreateCart returns the cart for the identity, creating an empty one
// on first access. Repeated calls return the same cart.
func (s *cartService) GetOrCreateCart(identity CartIdentity) (*model.Cart, error) {
	logger.Debug("Fetching cart", map[string]interface{}{
		"user_id":    identity.UserID,
		"session_id": identity.SessionID,
	})

	cart, err := s.findCart(identity)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id":    identity.UserID,
			"session_id": identity.SessionID,
		})
		return nil, err
	}

	cart = &model.Cart{UserID: identity.UserID}
	if identity.UserID == nil {
		sessionID := identity.SessionID
		cart.SessionID = &sessionID
	}

	if err := s.cartRepo.CreateCart(cart); err != nil {
		logger.Error("Failed to create cart", err, map[string]interface{}{
			"user_id":    identity.UserID,
			"session_id": identity.SessionID,
		})
		return nil, err
	}

	logger.Info("Cart created", map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": identity.UserID,
	})
	cart.Items = []model.CartItem{}
	return cart, nil
}

// AddItem puts a product into the cart. Adding a product already present
// merges quantities and keeps the unit price captured on first add.
func (s *cartService) AddItem(identity CartIdentity, productID uint, quantity int) (*model.Cart, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    identity.UserID,
		"product_id": productID,
		"quantity":   quantity,
	})

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot add to cart: product not found", map[string]interface{}{
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	if !product.IsActive || !product.IsInStock() {
		logger.Warn("Cannot add to cart: product unavailable", map[string]interface{}{
			"product_id":     productID,
			"is_active":      product.IsActive,
			"stock_quantity": product.StockQuantity,
			"allow_preorder": product.AllowPreorder,
		})
		return nil, ErrProductUnavailable
	}

	cart, err := s.GetOrCreateCart(identity)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.FindItemByCartAndProduct(cart.ID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing cart item", err, map[string]interface{}{
			"cart_id":    cart.ID,
			"product_id": productID,
		})
		return nil, err
	}

	if existing != nil {
		existing.Quantity += quantity
		if err := s.cartRepo.UpdateItem(existing); err != nil {
			logger.Error("Failed to merge cart item", err, map[string]interface{}{
				"cart_item_id": existing.ID,
			})
			return nil, err
		}
		logger.Info("Cart item merged", map[string]interface{}{
			"cart_item_id": existing.ID,
			"cart_id":      cart.ID,
			"quantity":     existing.Quantity,
		})
	} else {
		item := &model.CartItem{
			CartID:     cart.ID,
			ProductID:  productID,
			Quantity:   quantity,
			Price:      product.CurrentPrice(),
			IsPreorder: product.IsPreorderOnly(),
		}
		if err := s.cartRepo.CreateItem(item); err != nil {
			logger.Error("Failed to create cart item", err, map[string]interface{}{
				"cart_id":    cart.ID,
				"product_id": productID,
			})
			return nil, err
		}
		logger.Info("Cart item added", map[string]interface{}{
			"cart_item_id": item.ID,
			"cart_id":      cart.ID,
			"quantity":     quantity,
			"is_preorder":  item.IsPreorder,
		})
	}

	return s.cartRepo.FindCartByID(cart.ID)
}

// UpdateItemQuantity sets the quantity of an item in the caller's cart.
// A quantity of zero removes the item.
func (s *cartService) UpdateItemQuantity(identity CartIdentity, itemID uint, quantity int) (*model.Cart, error) {
	logger.Info("Updating cart item quantity", map[string]interface{}{
		"user_id":      identity.UserID,
		"cart_item_id": itemID,
		"quantity":     quantity,
	})

	cart, item, err := s.ownedItem(identity, itemID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		if err := s.cartRepo.DeleteItem(item.ID); err != nil {
			logger.Error("Failed to remove cart item", err, map[string]interface{}{
				"cart_item_id": itemID,
			})
			return nil, err
		}
	} else {
		item.Quantity = quantity
		if err := s.cartRepo.UpdateItem(item); err != nil {
			logger.Error("Failed to update cart item", err, map[string]interface{}{
				"cart_item_id": itemID,
			})
			return nil, err
		}
	}

	return s.cartRepo.FindCartByID(cart.ID)
}

func (s *cartService) RemoveItem(identity CartIdentity, itemID uint) (*model.Cart, error) {
	logger.Info("Removing cart item", map[string]interface{}{
		"user_id":      identity.UserID,
		"cart_item_id": itemID,
	})

	cart, item, err := s.ownedItem(identity, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.DeleteItem(item.ID); err != nil {
		logger.Error("Failed to remove cart item", err, map[string]interface{}{
			"cart_item_id": itemID,
		})
		return nil, err
	}

	return s.cartRepo.FindCartByID(cart.ID)
}

// ownedItem resolves an item and verifies it belongs to the caller's cart.
func (s *cartService) ownedItem(identity CartIdentity, itemID uint) (*model.Cart, *model.CartItem, error) {
	cart, err := s.findCart(identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The caller owns no cart, so any existing item is someone else's.
			return nil, nil, ErrCartItemNotOwned
		}
		return nil, nil, err
	}

	item, err := s.cartRepo.FindItemByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cart item not found", map[string]interface{}{
				"cart_item_id": itemID,
			})
			return nil, nil, ErrCartItemNotFound
		}
		return nil, nil, err
	}

	if item.CartID != cart.ID {
		logger.Warn("Cart item ownership mismatch", map[string]interface{}{
			"cart_item_id": itemID,
			"cart_id":      cart.ID,
			"item_cart_id": item.CartID,
		})
		return nil, nil, ErrCartItemNotOwned
	}

	return cart, item, nil
}

func (s *cartService) ClearCart(identity CartIdentity) error {
	logger.Info("Clearing cart", map[string]interface{}{
		"user_id":    identity.UserID,
		"session_id": identity.SessionID,
	})

	cart, err := s.findCart(identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if err := s.cartRepo.DeleteItemsByCartID(cart.ID); err != nil {
		logger.Error("Failed to clear cart", err, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return err
	}

	logger.Info("Cart cleared", map[string]interface{}{
		"cart_id": cart.ID,
	})
	return nil
}

// MergeGuestCart folds a guest session cart into the user's cart after
// login. Duplicate products merge quantities and keep the price the user's
// cart captured first; items only in the guest cart move over unchanged.
func (s *cartService) MergeGuestCart(userID uint, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	logger.Info("Merging guest cart into user cart", map[string]interface{}{
		"user_id":    userID,
		"session_id": sessionID,
	})

	guestCart, err := s.cartRepo.FindCartBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	userCart, err := s.GetOrCreateCart(CartIdentity{UserID: &userID})
	if err != nil {
		return err
	}

	for i := range guestCart.Items {
		guestItem := guestCart.Items[i]

		existing, err := s.cartRepo.FindItemByCartAndProduct(userCart.ID, guestItem.ProductID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if existing != nil {
			existing.Quantity += guestItem.Quantity
			if err := s.cartRepo.UpdateItem(existing); err != nil {
				return err
			}
		} else {
			item := &model.CartItem{
				CartID:     userCart.ID,
				ProductID:  guestItem.ProductID,
				Quantity:   guestItem.Quantity,
				Price:      guestItem.Price,
				IsPreorder: guestItem.IsPreorder,
			}
			if err := s.cartRepo.CreateItem(item); err != nil {
				return err
			}
		}
	}

	if err := s.cartRepo.DeleteCart(guestCart.ID); err != nil {
		logger.Error("Failed to delete merged guest cart", err, map[string]interface{}{
			"cart_id": guestCart.ID,
		})
		return err
	}

	logger.Info("Guest cart merged", map[string]interface{}{
		"user_id":    userID,
		"item_count": len(guestCart.Items),
	})
	return nil
}

// PurgeStaleGuestCarts drops anonymous carts untouched for the given
// duration. Called by the cleanup scheduler.
func (s *cartService) PurgeStaleGuestCarts(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	logger.Info("Purging stale guest carts", map[string]interface{}{
		"cutoff": cutoff,
	})

	deleted, err := s.cartRepo.DeleteStaleGuestCarts(cutoff)
	if err != nil {
		logger.Error("Failed to purge stale guest carts", err, map[string]interface{}{
			"cutoff": cutoff,
		})
		return 0, err
	}

	logger.Info("Stale guest carts purged", map[string]interface{}{
		"deleted": deleted,
	})
	return deleted, nil
}
