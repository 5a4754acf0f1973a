package scheduler

import (
	"github.com/robfig/cron/v3"

	"github.com/fixgearlabs/fixgear-cart/config"
	"github.com/fixgearlabs/fixgear-cart/internal/app/cart"
	"github.com/fixgearlabs/fixgear-cart/internal/storage"
	"github.com/fixgearlabs/fixgear-cart/pkg/logger"
)

// CartJanitor cleans up abandoned cart state: slot files of devices that
// never came back, and in-memory coordinators nobody touched in a while.
type CartJanitor struct {
	cron     *cron.Cron
	registry *cart.Registry
	slots    *storage.SlotStore
	cfg      config.CartConfig
}

func NewCartJanitor(registry *cart.Registry, slots *storage.SlotStore, cfg config.CartConfig) *CartJanitor {
	return &CartJanitor{
		cron:     cron.New(),
		registry: registry,
		slots:    slots,
		cfg:      cfg,
	}
}

// Start registers the cleanup job and starts the cron loop.
func (s *CartJanitor) Start() error {
	_, err := s.cron.AddFunc(s.cfg.JanitorSchedule, s.runOnce)
	if err != nil {
		logger.Error("Failed to add cron job for cart cleanup", err)
		return err
	}

	s.cron.Start()
	logger.Info("Cart janitor started", map[string]interface{}{
		"schedule":       s.cfg.JanitorSchedule,
		"idle_eviction":  s.cfg.IdleEviction.String(),
		"slot_prune_age": s.cfg.SlotPruneAge.String(),
	})

	return nil
}

func (s *CartJanitor) runOnce() {
	logger.Info("Starting scheduled cart cleanup", nil)

	evicted := s.registry.EvictIdle(s.cfg.IdleEviction)

	pruned, err := s.slots.Prune(s.cfg.SlotPruneAge)
	if err != nil {
		logger.Error("Failed to prune cart slot files", err)
	}

	logger.Info("Cart cleanup finished", map[string]interface{}{
		"coordinators_evicted": evicted,
		"slots_pruned":         pruned,
	})
}

// Stop halts the cron loop. Running jobs finish on their own.
func (s *CartJanitor) Stop() {
	logger.Info("Stopping cart janitor...", nil)
	s.cron.Stop()
	logger.Info("Cart janitor stopped", nil)
}
