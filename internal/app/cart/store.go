package cart

import (
	"errors"

	"github.com/fixgearlabs/fixgear-cart/internal/app/model"
	"github.com/fixgearlabs/fixgear-cart/internal/app/repository"
	"github.com/fixgearlabs/fixgear-cart/internal/storage"
	"gorm.io/gorm"
)

// lineItemStore is the store a cart is bound to: the device slot file when
// anonymous, the account-scoped cart table when identified. The coordinator
// picks one per operation based on ownership mode and never touches the
// backends directly.
type lineItemStore interface {
	ReadAll() ([]model.CartLineItem, error)
	// Upsert merges by summing: an existing line for the product gains
	// quantity, otherwise a new line is appended.
	Upsert(product model.Product, quantity int) error
	// SetQuantity replaces the quantity of an existing line. Absent
	// products are a no-op, not an error.
	SetQuantity(productID string, quantity int) error
	Remove(productID string) error
	Clear() error
}

// Pure line item sequence edits, shared by the local store and the
// coordinator's in-memory fallback path.

func mergeAdd(items []model.CartLineItem, product model.Product, quantity int) []model.CartLineItem {
	for i, item := range items {
		if item.Product.ID == product.ID {
			next := make([]model.CartLineItem, len(items))
			copy(next, items)
			next[i].Quantity += quantity
			return next
		}
	}
	next := make([]model.CartLineItem, len(items), len(items)+1)
	copy(next, items)
	return append(next, model.CartLineItem{Product: product, Quantity: quantity})
}

func setQuantity(items []model.CartLineItem, productID string, quantity int) []model.CartLineItem {
	next := make([]model.CartLineItem, len(items))
	copy(next, items)
	for i, item := range next {
		if item.Product.ID == productID {
			next[i].Quantity = quantity
		}
	}
	return next
}

func removeItem(items []model.CartLineItem, productID string) []model.CartLineItem {
	next := make([]model.CartLineItem, 0, len(items))
	for _, item := range items {
		if item.Product.ID != productID {
			next = append(next, item)
		}
	}
	return next
}

// localStore binds a cart to one device's slot file. Operations are
// synchronous read-modify-write cycles on the slot.
type localStore struct {
	slot     *storage.SlotStore
	deviceID string
}

func (s *localStore) ReadAll() ([]model.CartLineItem, error) {
	// Slot reads never fail; corruption degrades to empty.
	return s.slot.Read(s.deviceID), nil
}

func (s *localStore) Upsert(product model.Product, quantity int) error {
	items := s.slot.Read(s.deviceID)
	return s.slot.Write(s.deviceID, mergeAdd(items, product, quantity))
}

func (s *localStore) SetQuantity(productID string, quantity int) error {
	items := s.slot.Read(s.deviceID)
	return s.slot.Write(s.deviceID, setQuantity(items, productID, quantity))
}

func (s *localStore) Remove(productID string) error {
	items := s.slot.Read(s.deviceID)
	return s.slot.Write(s.deviceID, removeItem(items, productID))
}

func (s *localStore) Clear() error {
	return s.slot.Write(s.deviceID, nil)
}

// remoteStore binds a cart to one owner's rows in the cart table. Every
// error is returned as-is; retry and fallback policy belongs to the
// coordinator.
type remoteStore struct {
	repo  repository.CartRepository
	owner string
}

func (s *remoteStore) ReadAll() ([]model.CartLineItem, error) {
	rows, err := s.repo.SelectByOwner(s.owner)
	if err != nil {
		return nil, err
	}

	items := make([]model.CartLineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.CartLineItem{
			Product:  row.Product,
			Quantity: row.Quantity,
		})
	}
	return items, nil
}

func (s *remoteStore) Upsert(product model.Product, quantity int) error {
	existing, err := s.repo.FindByOwnerAndProduct(s.owner, product.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if existing != nil {
		return s.repo.UpdateQuantity(existing.ID, existing.Quantity+quantity)
	}

	return s.repo.Insert(&model.CartItem{
		OwnerID:   s.owner,
		ProductID: product.ID,
		Quantity:  quantity,
	})
}

func (s *remoteStore) SetQuantity(productID string, quantity int) error {
	existing, err := s.repo.FindByOwnerAndProduct(s.owner, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.repo.UpdateQuantity(existing.ID, quantity)
}

func (s *remoteStore) Remove(productID string) error {
	return s.repo.DeleteByOwnerAndProduct(s.owner, productID)
}

func (s *remoteStore) Clear() error {
	return s.repo.DeleteAllByOwner(s.owner)
}
