package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topic names events are published under.
const (
	TopicOrderCompleted = "orders.completed"
)

// OrderCompleted is emitted after a checkout transaction commits. Consumers
// must tolerate redelivery: the order ID is the deduplication key.
type OrderCompleted struct {
	OrderID     uint            `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      uint            `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CompletedAt time.Time       `json:"completed_at"`
}
