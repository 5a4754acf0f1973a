package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_StartsAnonymous(t *testing.T) {
	tracker := NewTracker()
	assert.Equal(t, "", tracker.Current())
}

func TestTracker_SetNotifiesSubscribers(t *testing.T) {
	tracker := NewTracker()

	var seen []string
	tracker.Subscribe(func(identity string) {
		seen = append(seen, identity)
	})

	tracker.Set("user-1")
	tracker.Set("")
	tracker.Set("user-2")

	assert.Equal(t, []string{"user-1", "", "user-2"}, seen)
	assert.Equal(t, "user-2", tracker.Current())
}

func TestTracker_SetDedupesSameIdentity(t *testing.T) {
	tracker := NewTracker()

	calls := 0
	tracker.Subscribe(func(string) { calls++ })

	tracker.Set("user-1")
	tracker.Set("user-1")
	tracker.Set("user-1")

	assert.Equal(t, 1, calls)
}

func TestTracker_SetAnonymousTwiceNotifiesOnce(t *testing.T) {
	tracker := NewTracker()

	calls := 0
	tracker.Subscribe(func(string) { calls++ })

	// Already anonymous, so the first Set("") is a no-op too
	tracker.Set("")
	assert.Equal(t, 0, calls)
}

func TestTracker_Unsubscribe(t *testing.T) {
	tracker := NewTracker()

	calls := 0
	unsubscribe := tracker.Subscribe(func(string) { calls++ })

	tracker.Set("user-1")
	unsubscribe()
	tracker.Set("user-2")

	assert.Equal(t, 1, calls)
}

func TestTracker_MultipleSubscribers(t *testing.T) {
	tracker := NewTracker()

	var first, second []string
	tracker.Subscribe(func(identity string) { first = append(first, identity) })
	tracker.Subscribe(func(identity string) { second = append(second, identity) })

	tracker.Set("user-1")

	assert.Equal(t, []string{"user-1"}, first)
	assert.Equal(t, []string{"user-1"}, second)
}
