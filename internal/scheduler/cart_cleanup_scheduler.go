package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/goatmart/goatmart-backend/internal/app/service"
	"github.com/goatmart/goatmart-backend/pkg/logger"
)

// Guest carts that have not been touched for this long are discarded.
const staleCartAge = 30 * 24 * time.Hour

// CartCleanupScheduler purges abandoned guest carts on a schedule.
type CartCleanupScheduler struct {
	cron        *cron.Cron
	cartService service.CartService
}

func NewCartCleanupScheduler(cartService service.CartService) *CartCleanupScheduler {
	return &CartCleanupScheduler{
		cron:        cron.New(),
		cartService: cartService,
	}
}

// Start registers the nightly cleanup job (3:00 AM server time).
func (s *CartCleanupScheduler) Start() error {
	_, err := s.cron.AddFunc("0 3 * * *", func() {
		logger.Info("Starting scheduled guest cart cleanup", nil)

		purged, err := s.cartService.PurgeStaleGuestCarts(staleCartAge)
		if err != nil {
			logger.Error("Failed to purge stale guest carts", err)
			return
		}

		logger.Info("Guest cart cleanup finished", map[string]interface{}{
			"purged_carts": purged,
		})
	})

	if err != nil {
		logger.Error("Failed to add cron job for cart cleanup", err)
		return err
	}

	s.cron.Start()
	logger.Info("Cart cleanup scheduler started successfully (daily at 3:00 AM)", nil)

	return nil
}

func (s *CartCleanupScheduler) Stop() {
	logger.Info("Stopping cart cleanup scheduler...", nil)
	s.cron.Stop()
	logger.Info("Cart cleanup scheduler stopped", nil)
}
