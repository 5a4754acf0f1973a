package cart

import (
	"sync"
	"time"

	"github.com/fixgearlabs/fixgear-cart/internal/app/model"
	"github.com/fixgearlabs/fixgear-cart/internal/app/repository"
	"github.com/fixgearlabs/fixgear-cart/internal/app/session"
	"github.com/fixgearlabs/fixgear-cart/internal/storage"
	"github.com/fixgearlabs/fixgear-cart/pkg/logger"
)

// Coordinator owns the authoritative cart state for one device. Every
// mutation targets either the device slot (anonymous) or the account cart
// table (identified), recomputes totals, and publishes a fresh snapshot.
//
// All operations, including their remote round trips, serialize through one
// mutex. An identity change arriving while a mutation is in flight waits its
// turn, so a late completion can never write into a store the cart is no
// longer bound to.
//
// Mutations never fail from the caller's point of view: a remote write that
// errors is absorbed by applying the same change to the in-memory items and
// the device slot, so the UI keeps reflecting the user's intent. A later
// Refresh re-reads the bound store and reverts the optimistic state if the
// remote write truly never landed. Hydration errors, by contrast, are
// surfaced so the UI can offer a retry.
type Coordinator struct {
	mu       sync.Mutex
	deviceID string
	identity string // empty = anonymous
	state    model.CartState
	loading  bool
	lastUsed time.Time

	local   *localStore
	repo    repository.CartRepository
	tracker *session.Tracker

	unsubscribe func()

	changeMu   sync.Mutex
	changeSubs map[int]func(model.CartState)
	nextChange int
}

func NewCoordinator(deviceID string, slot *storage.SlotStore, repo repository.CartRepository, tracker *session.Tracker) *Coordinator {
	return &Coordinator{
		deviceID:   deviceID,
		loading:    true,
		lastUsed:   time.Now(),
		local:      &localStore{slot: slot, deviceID: deviceID},
		repo:       repo,
		tracker:    tracker,
		changeSubs: make(map[int]func(model.CartState)),
	}
}

// Start resolves the current identity once, hydrates from the matching
// store, and subscribes to identity changes. The returned error is the
// initial hydration failure, surfaced so the caller can show a retry; the
// coordinator stays usable either way.
func (c *Coordinator) Start() error {
	// Resolve the identity before taking the operation mutex: the tracker
	// invokes reconcile under its own lock, so the two locks must never be
	// acquired in the opposite order.
	identity := c.tracker.Current()

	c.mu.Lock()
	c.identity = identity
	err := c.hydrateLocked()
	c.loading = false
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.unsubscribe = c.tracker.Subscribe(c.reconcile)

	logger.Info("Cart coordinator started", map[string]interface{}{
		"device_id":  c.deviceID,
		"identified": c.identity != "",
		"item_count": state.ItemCount,
	})

	c.notify(state)
	return err
}

// Close unsubscribes from the identity tracker and drops change listeners.
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}

	c.changeMu.Lock()
	c.changeSubs = make(map[int]func(model.CartState))
	c.changeMu.Unlock()

	logger.Debug("Cart coordinator closed", map[string]interface{}{
		"device_id": c.deviceID,
	})
}

// State returns a snapshot of the published cart state.
func (c *Coordinator) State() model.CartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Loading reports whether a hydration or reconciliation is in flight.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Identity returns the identity the cart is currently bound to, empty when
// anonymous.
func (c *Coordinator) Identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// LastUsed returns when an operation last touched this coordinator.
func (c *Coordinator) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

func (c *Coordinator) touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
}

// OnChange registers a listener for published cart snapshots and returns
// its unsubscribe.
func (c *Coordinator) OnChange(fn func(model.CartState)) (unsubscribe func()) {
	c.changeMu.Lock()
	defer c.changeMu.Unlock()

	id := c.nextChange
	c.nextChange++
	c.changeSubs[id] = fn

	return func() {
		c.changeMu.Lock()
		defer c.changeMu.Unlock()
		delete(c.changeSubs, id)
	}
}

// AddToCart merges the product into the cart, summing quantities when a
// line for it already exists.
func (c *Coordinator) AddToCart(product model.Product, quantity int) model.CartState {
	if quantity <= 0 {
		quantity = 1
	}

	c.mu.Lock()
	c.lastUsed = time.Now()

	if c.identity == "" {
		c.applyLocalLocked(mergeAdd(c.state.Items, product, quantity))
		state := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(state)
		return state
	}

	remote := &remoteStore{repo: c.repo, owner: c.identity}
	if err := remote.Upsert(product, quantity); err != nil {
		logger.Error("Gagal menyinkronkan cart ke server, applying local fallback", err, map[string]interface{}{
			"device_id":  c.deviceID,
			"owner_id":   c.identity,
			"product_id": product.ID,
		})
		c.applyLocalLocked(mergeAdd(c.state.Items, product, quantity))
	} else {
		c.rereadRemoteLocked(remote, mergeAdd(c.state.Items, product, quantity))
	}

	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)
	return state
}

// RemoveFromCart drops the line item for a product. Removing an absent
// product is a no-op.
func (c *Coordinator) RemoveFromCart(productID string) model.CartState {
	c.mu.Lock()
	state := c.removeLocked(productID)
	c.mu.Unlock()
	c.notify(state)
	return state
}

// UpdateQuantity sets the quantity of an existing line item. A quantity of
// zero or less removes the line instead; an absent product is a no-op.
func (c *Coordinator) UpdateQuantity(productID string, quantity int) model.CartState {
	if quantity <= 0 {
		c.mu.Lock()
		state := c.removeLocked(productID)
		c.mu.Unlock()
		c.notify(state)
		return state
	}

	c.mu.Lock()
	c.lastUsed = time.Now()

	if c.identity == "" {
		c.applyLocalLocked(setQuantity(c.state.Items, productID, quantity))
		state := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(state)
		return state
	}

	remote := &remoteStore{repo: c.repo, owner: c.identity}
	if err := remote.SetQuantity(productID, quantity); err != nil {
		logger.Error("Gagal memperbarui jumlah di server, applying local fallback", err, map[string]interface{}{
			"device_id":  c.deviceID,
			"owner_id":   c.identity,
			"product_id": productID,
		})
		c.applyLocalLocked(setQuantity(c.state.Items, productID, quantity))
	} else {
		c.rereadRemoteLocked(remote, setQuantity(c.state.Items, productID, quantity))
	}

	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)
	return state
}

// ClearCart removes every line item for the active owner or device.
func (c *Coordinator) ClearCart() model.CartState {
	c.mu.Lock()
	c.lastUsed = time.Now()

	if c.identity != "" {
		remote := &remoteStore{repo: c.repo, owner: c.identity}
		if err := remote.Clear(); err != nil {
			logger.Error("Gagal mengosongkan cart di server, clearing locally", err, map[string]interface{}{
				"device_id": c.deviceID,
				"owner_id":  c.identity,
			})
		}
	}

	c.applyLocalLocked(nil)
	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)
	return state
}

// Refresh re-hydrates the cart from the store matching the current mode,
// discarding divergent in-memory state. This is the authoritative resync;
// its error is surfaced so the UI can show a retry.
func (c *Coordinator) Refresh() (model.CartState, error) {
	c.mu.Lock()
	c.lastUsed = time.Now()

	err := c.hydrateLocked()
	state := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil {
		return state, err
	}
	c.notify(state)
	return state, nil
}

// reconcile re-binds the cart when the identity changes. Runs under the
// operation mutex, so it is ordered against in-flight mutations.
func (c *Coordinator) reconcile(identity string) {
	c.mu.Lock()

	if identity == c.identity {
		c.mu.Unlock()
		return
	}

	logger.Info("Reconciling cart after identity change", map[string]interface{}{
		"device_id":  c.deviceID,
		"identified": identity != "",
	})

	c.identity = identity
	c.loading = true
	if err := c.hydrateLocked(); err != nil {
		// Keep whatever state was published; an explicit Refresh can retry.
		logger.Error("Gagal menyinkronkan cart setelah perubahan sesi", err, map[string]interface{}{
			"device_id": c.deviceID,
			"owner_id":  identity,
		})
	}
	c.loading = false

	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)
}

// hydrateLocked replaces the in-memory items with the bound store's
// contents. On remote failure the previous state is kept and the error
// returned.
func (c *Coordinator) hydrateLocked() error {
	if c.identity == "" {
		items, _ := c.local.ReadAll()
		c.state.Items = items
		c.recomputeLocked()
		return nil
	}

	remote := &remoteStore{repo: c.repo, owner: c.identity}
	items, err := remote.ReadAll()
	if err != nil {
		return err
	}

	// Authoritative: the anonymous cart is not merged in. It stays in the
	// device slot untouched and comes back on logout.
	c.state.Items = items
	c.recomputeLocked()
	return nil
}

func (c *Coordinator) removeLocked(productID string) model.CartState {
	c.lastUsed = time.Now()

	if c.identity == "" {
		c.applyLocalLocked(removeItem(c.state.Items, productID))
		return c.snapshotLocked()
	}

	remote := &remoteStore{repo: c.repo, owner: c.identity}
	if err := remote.Remove(productID); err != nil {
		logger.Error("Gagal menghapus item dari server, applying local fallback", err, map[string]interface{}{
			"device_id":  c.deviceID,
			"owner_id":   c.identity,
			"product_id": productID,
		})
		c.applyLocalLocked(removeItem(c.state.Items, productID))
	} else {
		c.rereadRemoteLocked(remote, removeItem(c.state.Items, productID))
	}
	return c.snapshotLocked()
}

// applyLocalLocked installs the given items in memory, persists them to the
// device slot, and recomputes totals. A slot write failure is logged but
// does not lose the in-memory change.
func (c *Coordinator) applyLocalLocked(items []model.CartLineItem) {
	c.state.Items = items
	if err := c.local.slot.Write(c.deviceID, items); err != nil {
		logger.Error("Failed to persist cart slot, keeping in-memory state", err, map[string]interface{}{
			"device_id": c.deviceID,
		})
	}
	c.recomputeLocked()
}

// rereadRemoteLocked refreshes state from the remote store after a
// successful write. If the re-read fails, the locally computed fallback
// keeps the UI consistent with the user's intent.
func (c *Coordinator) rereadRemoteLocked(remote *remoteStore, fallback []model.CartLineItem) {
	items, err := remote.ReadAll()
	if err != nil {
		logger.Error("Gagal memuat cart, applying local fallback", err, map[string]interface{}{
			"device_id": c.deviceID,
			"owner_id":  remote.owner,
		})
		c.applyLocalLocked(fallback)
		return
	}
	c.state.Items = items
	c.recomputeLocked()
}

// recomputeLocked refreshes the derived fields from the item sequence.
// Published totals are always a fresh recomputation, never adjusted in
// place.
func (c *Coordinator) recomputeLocked() {
	totals := ComputeTotals(c.state.Items)
	c.state.Total = totals.Total
	c.state.ItemCount = totals.ItemCount
}

func (c *Coordinator) snapshotLocked() model.CartState {
	items := make([]model.CartLineItem, len(c.state.Items))
	copy(items, c.state.Items)
	return model.CartState{
		Items:     items,
		Total:     c.state.Total,
		ItemCount: c.state.ItemCount,
	}
}

func (c *Coordinator) notify(state model.CartState) {
	c.changeMu.Lock()
	subs := make([]func(model.CartState), 0, len(c.changeSubs))
	for _, fn := range c.changeSubs {
		subs = append(subs, fn)
	}
	c.changeMu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}
