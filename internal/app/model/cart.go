package model

import (
	"time"
)

// CartItem is one row of the account-scoped cart table. Anonymous carts
// never touch this table; they live in per-device slot files instead.
// Rows are hard-deleted: a soft-deleted row would keep occupying the
// unique (owner_id, product_id) index and block re-adding the product.
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OwnerID   string    `gorm:"type:uuid;not null;index:idx_cart_owner_product,unique" json:"owner_id"`
	ProductID string    `gorm:"type:uuid;not null;index:idx_cart_owner_product,unique" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// CartLineItem pairs a product snapshot with a positive quantity.
// Invariant: Quantity >= 1; a quantity reaching zero removes the line.
type CartLineItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Valid reports whether the line item is structurally sound. Malformed
// entries read back from a slot file are dropped, never surfaced.
func (li CartLineItem) Valid() bool {
	return li.Product.ID != "" && li.Quantity >= 1
}

// CartState is the published cart: the ordered line items plus totals that
// are pure projections of them, recomputed on every change.
type CartState struct {
	Items     []CartLineItem `json:"items"`
	Total     float64        `json:"total"`
	ItemCount int            `json:"item_count"`
}
