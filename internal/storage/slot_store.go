package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fixgearlabs/fixgear-cart/internal/app/model"
	"github.com/fixgearlabs/fixgear-cart/pkg/logger"
)

// SlotStore persists anonymous carts: one JSON slot file per device ID.
// It is the device-side counterpart of the cart_items table and the sole
// durable record for carts without an owner.
//
// Read never fails on corruption. A missing, empty, or malformed slot
// degrades to an empty cart so a broken file can never block the UI.
type SlotStore struct {
	dir string
}

func NewSlotStore(dir string) (*SlotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cart data dir: %w", err)
	}
	return &SlotStore{dir: dir}, nil
}

func (s *SlotStore) slotPath(deviceID string) string {
	// Device IDs are UUIDs, but never trust them as path components.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, deviceID)
	return filepath.Join(s.dir, safe+".json")
}

// Read returns the line items stored for a device. Structurally invalid
// entries are dropped; corruption of any kind yields an empty sequence.
func (s *SlotStore) Read(deviceID string) []model.CartLineItem {
	raw, err := os.ReadFile(s.slotPath(deviceID))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Gagal membaca cart lokal, treating as empty", map[string]interface{}{
				"device_id": deviceID,
				"error":     err.Error(),
			})
		}
		return []model.CartLineItem{}
	}

	var items []model.CartLineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		logger.Warn("Cart slot corrupted, treating as empty", map[string]interface{}{
			"device_id": deviceID,
			"error":     err.Error(),
		})
		return []model.CartLineItem{}
	}

	return sanitize(items)
}

// Write persists the given line items for a device, dropping invalid
// entries first. The write is atomic: a partial write can never corrupt an
// existing slot.
func (s *SlotStore) Write(deviceID string, items []model.CartLineItem) error {
	sanitized := sanitize(items)

	raw, err := json.Marshal(sanitized)
	if err != nil {
		return fmt.Errorf("failed to encode cart slot: %w", err)
	}

	path := s.slotPath(deviceID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write cart slot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace cart slot: %w", err)
	}

	logger.Debug("Cart slot written", map[string]interface{}{
		"device_id": deviceID,
		"count":     len(sanitized),
	})
	return nil
}

// Delete removes a device's slot file. Missing files are fine.
func (s *SlotStore) Delete(deviceID string) error {
	err := os.Remove(s.slotPath(deviceID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Prune deletes slot files that have not been written within maxAge and
// returns how many were removed. Used by the janitor to reclaim carts of
// devices that never came back.
func (s *SlotStore) Prune(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to scan cart data dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	pruned := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			logger.Warn("Failed to prune cart slot", map[string]interface{}{
				"file":  entry.Name(),
				"error": err.Error(),
			})
			continue
		}
		pruned++
	}

	if pruned > 0 {
		logger.Info("Pruned stale cart slots", map[string]interface{}{
			"count":   pruned,
			"max_age": maxAge.String(),
		})
	}
	return pruned, nil
}

func sanitize(items []model.CartLineItem) []model.CartLineItem {
	valid := make([]model.CartLineItem, 0, len(items))
	for _, item := range items {
		if item.Valid() {
			valid = append(valid, item)
		}
	}
	return valid
}
