package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/goatmart/goatmart-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Handler processes a published OrderCompleted event. Returned errors are
// logged, not retried.
type Handler func(ctx context.Context, event OrderCompleted) error

// Publisher publishes order completion events.
type Publisher interface {
	PublishOrderCompleted(ctx context.Context, event OrderCompleted) error
}

// Subscriber registers handlers for order completion events.
type Subscriber interface {
	SubscribeOrderCompleted(handler Handler)
}

// Bus is both sides of the event pipeline.
type Bus interface {
	Publisher
	Subscriber
}

// InProcessBus dispatches events synchronously to registered handlers in the
// publishing goroutine. Used when Redis is disabled and in tests.
type InProcessBus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewInProcessBus() *InProcessBus {
	return &InProcessBus{}
}

func (b *InProcessBus) SubscribeOrderCompleted(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

func (b *InProcessBus) PublishOrderCompleted(ctx context.Context, event OrderCompleted) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			logger.Error("Order completed handler failed", err, map[string]interface{}{
				"order_id": event.OrderID,
			})
		}
	}
	return nil
}

// RedisBus publishes events over Redis pub/sub so other processes can react.
// Handlers run in a background goroutine started by Start.
type RedisBus struct {
	client *redis.Client

	mu       sync.RWMutex
	handlers []Handler
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func (b *RedisBus) SubscribeOrderCompleted(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

func (b *RedisBus) PublishOrderCompleted(ctx context.Context, event OrderCompleted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal order completed event", err, map[string]interface{}{
			"order_id": event.OrderID,
		})
		return err
	}

	if err := b.client.Publish(ctx, TopicOrderCompleted, payload).Err(); err != nil {
		logger.Error("Failed to publish order completed event", err, map[string]interface{}{
			"order_id": event.OrderID,
		})
		return err
	}

	logger.Debug("Order completed event published", map[string]interface{}{
		"order_id": event.OrderID,
		"topic":    TopicOrderCompleted,
	})
	return nil
}

// Start begins consuming events. It blocks until the context is cancelled,
// so callers run it in its own goroutine.
func (b *RedisBus) Start(ctx context.Context) {
	sub := b.client.Subscribe(ctx, TopicOrderCompleted)
	defer sub.Close()

	logger.Info("Event bus subscribed", map[string]interface{}{
		"topic": TopicOrderCompleted,
	})

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Event bus stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				logger.Warn("Event bus channel closed")
				return
			}

			var event OrderCompleted
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Error("Failed to decode order completed event", err, map[string]interface{}{
					"payload": msg.Payload,
				})
				continue
			}

			b.mu.RLock()
			handlers := make([]Handler, len(b.handlers))
			copy(handlers, b.handlers)
			b.mu.RUnlock()

			for _, handler := range handlers {
				if err := handler(ctx, event); err != nil {
					logger.Error("Order completed handler failed", err, map[string]interface{}{
						"order_id": event.OrderID,
					})
				}
			}
		}
	}
}
