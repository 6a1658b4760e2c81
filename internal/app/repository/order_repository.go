package repository

import (
	"github.com/goatmart/goatmart-backend/internal/app/model"
	"github.com/goatmart/goatmart-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByOrderNumber(orderNumber string) (*model.Order, error)
	FindByUserID(userID uint, limit, offset int) ([]model.Order, error)
	FindAll(status string, limit, offset int) ([]model.Order, error)
	Update(order *model.Order) error
	UpdateStatus(id uint, status model.OrderStatus) error
	UpdatePaymentStatus(id uint, status model.PaymentStatus, reference string) error
	ExistsByOrderNumber(orderNumber string) (bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
		return db.Preload("Product")
	}).Preload("User")
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"user_id":      order.UserID,
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount,
	})

	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id":      order.UserID,
			"order_number": order.OrderNumber,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":     order.ID,
		"user_id":      order.UserID,
		"order_number": order.OrderNumber,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	logger.Debug("Order found by ID in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})
	return &order, nil
}

func (r *orderRepository) FindByOrderNumber(orderNumber string) (*model.Order, error) {
	logger.Debug("Finding order by order number in database", map[string]interface{}{
		"order_number": orderNumber,
	})

	var order model.Order
	if err := r.preloadOrder().Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		logger.Error("Failed to find order by order number in database", err, map[string]interface{}{
			"order_number": orderNumber,
		})
		return nil, err
	}

	logger.Debug("Order found by order number in database", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": orderNumber,
	})
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint, limit, offset int) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
		"offset":  offset,
	})

	query := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var orders []model.Order
	if err := query.Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (r *orderRepository) FindAll(status string, limit, offset int) ([]model.Order, error) {
	logger.Debug("Finding orders in database", map[string]interface{}{
		"status": status,
		"limit":  limit,
		"offset": offset,
	})

	query := r.preloadOrder().Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var orders []model.Order
	if err := query.Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders in database", err, map[string]interface{}{
			"status": status,
		})
		return nil, err
	}

	logger.Debug("Orders found in database", map[string]interface{}{
		"status": status,
		"count":  len(orders),
	})
	return orders, nil
}

func (r *orderRepository) Update(order *model.Order) error {
	logger.Debug("Updating order in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})

	if err := r.db.Save(order).Error; err != nil {
		logger.Error("Failed to update order in database", err, map[string]interface{}{
			"order_id": order.ID,
			"user_id":  order.UserID,
		})
		return err
	}

	logger.Debug("Order updated in database", map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	})
	return nil
}

func (r *orderRepository) UpdateStatus(id uint, status model.OrderStatus) error {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})

	if err := r.db.Model(&model.Order{}).Where("id = ?", id).
		Update("status", status).Error; err != nil {
		logger.Error("Failed to update order status in database", err, map[string]interface{}{
			"order_id": id,
			"status":   status,
		})
		return err
	}

	logger.Debug("Order status updated in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})
	return nil
}

func (r *orderRepository) UpdatePaymentStatus(id uint, status model.PaymentStatus, reference string) error {
	logger.Debug("Updating order payment status in database", map[string]interface{}{
		"order_id":       id,
		"payment_status": status,
	})

	updates := map[string]interface{}{"payment_status": status}
	if reference != "" {
		updates["payment_reference"] = reference
	}

	if err := r.db.Model(&model.Order{}).Where("id = ?", id).
		Updates(updates).Error; err != nil {
		logger.Error("Failed to update order payment status in database", err, map[string]interface{}{
			"order_id":       id,
			"payment_status": status,
		})
		return err
	}

	logger.Debug("Order payment status updated in database", map[string]interface{}{
		"order_id":       id,
		"payment_status": status,
	})
	return nil
}

func (r *orderRepository) ExistsByOrderNumber(orderNumber string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		logger.Error("Failed to check order number existence in database", err, map[string]interface{}{
			"order_number": orderNumber,
		})
		return false, err
	}
	return count > 0, nil
}
