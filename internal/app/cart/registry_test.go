package cart

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixgearlabs/fixgear-cart/internal/app/model"
	"github.com/fixgearlabs/fixgear-cart/internal/storage"
)

func setupRegistry(t *testing.T) (*Registry, *fakeCartRepo) {
	slot, err := storage.NewSlotStore(t.TempDir())
	require.NoError(t, err)

	repo := newFakeCartRepo(frame, tire)
	registry := NewRegistry(slot, repo)
	t.Cleanup(registry.Close)

	return registry, repo
}

func TestRegistry_GetReturnsSameCoordinatorPerDevice(t *testing.T) {
	registry, _ := setupRegistry(t)

	first, err := registry.Get("device-1")
	require.NoError(t, err)

	second, err := registry.Get("device-1")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := registry.Get("device-2")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestRegistry_DevicesAreIsolated(t *testing.T) {
	registry, _ := setupRegistry(t)

	one, err := registry.Get("device-1")
	require.NoError(t, err)
	two, err := registry.Get("device-2")
	require.NoError(t, err)

	one.AddToCart(frame, 2)

	assert.Equal(t, 2, one.State().ItemCount)
	assert.Equal(t, 0, two.State().ItemCount)
}

func TestRegistry_SetIdentityDrivesReconciliation(t *testing.T) {
	registry, repo := setupRegistry(t)

	require.NoError(t, repo.Insert(&model.CartItem{OwnerID: "user-1", ProductID: tire.ID, Quantity: 3}))

	require.NoError(t, registry.SetIdentity("device-1", "user-1"))

	coordinator, err := registry.Get("device-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", coordinator.Identity())
	assert.Equal(t, 3, coordinator.State().ItemCount)

	require.NoError(t, registry.SetIdentity("device-1", ""))
	assert.Equal(t, "", coordinator.Identity())
}

func TestRegistry_SetIdentityAfterEviction(t *testing.T) {
	registry, _ := setupRegistry(t)

	_, err := registry.Get("device-1")
	require.NoError(t, err)
	require.Equal(t, 1, registry.EvictIdle(0))

	// Binding an identity to an evicted device recreates its coordinator
	require.NoError(t, registry.SetIdentity("device-1", "user-1"))

	coordinator, err := registry.Get("device-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", coordinator.Identity())
}

func TestRegistry_SetIdentitySurvivesConcurrentEviction(t *testing.T) {
	registry, _ := setupRegistry(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			assert.NoError(t, registry.SetIdentity("device-1", "user-1"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			registry.EvictIdle(0)
		}
	}()
	wg.Wait()
}

func TestRegistry_GetRefreshesLastUsed(t *testing.T) {
	registry, _ := setupRegistry(t)

	_, err := registry.Get("device-1")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	// The lookup itself counts as use, so the coordinator is not stale
	_, err = registry.Get("device-1")
	require.NoError(t, err)
	assert.Equal(t, 0, registry.EvictIdle(10*time.Millisecond))
}

func TestRegistry_EvictIdle(t *testing.T) {
	registry, _ := setupRegistry(t)

	stale, err := registry.Get("stale-device")
	require.NoError(t, err)
	stale.AddToCart(frame, 1)

	// Nothing is old enough yet
	assert.Equal(t, 0, registry.EvictIdle(time.Hour))

	// With a zero threshold everything is stale
	evicted := registry.EvictIdle(0)
	assert.Equal(t, 1, evicted)

	// The durable slot survives eviction, so the cart comes back on next use
	fresh, err := registry.Get("stale-device")
	require.NoError(t, err)
	assert.NotSame(t, stale, fresh)
	assert.Equal(t, 1, fresh.State().ItemCount)
}
