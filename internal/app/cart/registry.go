package cart

import (
	"sync"
	"time"

	"github.com/fixgearlabs/fixgear-cart/internal/app/repository"
	"github.com/fixgearlabs/fixgear-cart/internal/app/session"
	"github.com/fixgearlabs/fixgear-cart/internal/storage"
	"github.com/fixgearlabs/fixgear-cart/pkg/logger"
)

// Registry hands out one coordinator per device, creating it lazily on
// first use. It is the bridge between auth events and identity trackers:
// login and logout resolve the device's tracker and set the identity there.
type Registry struct {
	mu     sync.Mutex
	coords map[string]*registration

	slot *storage.SlotStore
	repo repository.CartRepository
}

type registration struct {
	coordinator *Coordinator
	tracker     *session.Tracker
}

func NewRegistry(slot *storage.SlotStore, repo repository.CartRepository) *Registry {
	return &Registry{
		coords: make(map[string]*registration),
		slot:   slot,
		repo:   repo,
	}
}

// Get returns the device's coordinator, creating and starting it on first
// use. The error is the initial hydration failure of a freshly created
// coordinator; the coordinator is registered and usable regardless.
func (r *Registry) Get(deviceID string) (*Coordinator, error) {
	reg, err := r.lookupOrCreate(deviceID)
	return reg.coordinator, err
}

// SetIdentity binds an identity to a device's cart, empty for anonymous.
// The tracker dedupes, so re-binding the same identity is a no-op.
func (r *Registry) SetIdentity(deviceID, identity string) error {
	reg, err := r.lookupOrCreate(deviceID)
	reg.tracker.Set(identity)
	return err
}

// lookupOrCreate resolves the device's registration in one critical section
// so a concurrent EvictIdle cannot drop it between lookup and use. Touching
// LastUsed under the same lock keeps the returned coordinator out of the
// janitor's next sweep.
func (r *Registry) lookupOrCreate(deviceID string) (*registration, error) {
	r.mu.Lock()
	reg, ok := r.coords[deviceID]
	if ok {
		reg.coordinator.touch()
		r.mu.Unlock()
		return reg, nil
	}

	tracker := session.NewTracker()
	coordinator := NewCoordinator(deviceID, r.slot, r.repo, tracker)
	reg = &registration{coordinator: coordinator, tracker: tracker}
	r.coords[deviceID] = reg
	r.mu.Unlock()

	err := coordinator.Start()
	if err != nil {
		logger.Error("Initial cart hydration failed", err, map[string]interface{}{
			"device_id": deviceID,
		})
	}
	return reg, err
}

// EvictIdle closes and forgets coordinators untouched for longer than
// maxIdle, returning how many were evicted. Their durable state stays in
// the slot files and the cart table.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	var stale []*registration
	for deviceID, reg := range r.coords {
		if reg.coordinator.LastUsed().Before(cutoff) {
			stale = append(stale, reg)
			delete(r.coords, deviceID)
		}
	}
	r.mu.Unlock()

	for _, reg := range stale {
		reg.coordinator.Close()
	}

	if len(stale) > 0 {
		logger.Info("Evicted idle cart coordinators", map[string]interface{}{
			"count": len(stale),
		})
	}
	return len(stale)
}

// Close tears down every coordinator.
func (r *Registry) Close() {
	r.mu.Lock()
	regs := make([]*registration, 0, len(r.coords))
	for _, reg := range r.coords {
		regs = append(regs, reg)
	}
	r.coords = make(map[string]*registration)
	r.mu.Unlock()

	for _, reg := range regs {
		reg.coordinator.Close()
	}
}
