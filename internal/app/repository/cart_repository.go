package repository

import (
	"github.com/fixgearlabs/fixgear-cart/internal/app/model"
	"github.com/fixgearlabs/fixgear-cart/pkg/logger"
	"gorm.io/gorm"
)

// CartRepository is the remote store adapter: CRUD against the account-scoped
// cart_items table. It performs no retries; failure policy belongs to the
// coordinator.
type CartRepository interface {
	SelectByOwner(ownerID string) ([]model.CartItem, error)
	FindByOwnerAndProduct(ownerID, productID string) (*model.CartItem, error)
	Insert(cartItem *model.CartItem) error
	UpdateQuantity(id uint, quantity int) error
	DeleteByOwnerAndProduct(ownerID, productID string) error
	DeleteAllByOwner(ownerID string) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) SelectByOwner(ownerID string) ([]model.CartItem, error) {
	logger.Debug("Selecting cart items by owner in database", map[string]interface{}{
		"owner_id": ownerID,
	})

	var cartItems []model.CartItem
	err := r.db.Where("owner_id = ?", ownerID).
		Preload("Product").
		Order("created_at ASC").
		Find(&cartItems).Error
	if err != nil {
		logger.Error("Failed to select cart items by owner in database", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}

	// A row whose product no longer resolves is dropped, not fatal.
	resolved := make([]model.CartItem, 0, len(cartItems))
	for _, item := range cartItems {
		if item.Product.ID == "" {
			logger.Warn("Dropping cart row with unresolved product", map[string]interface{}{
				"cart_item_id": item.ID,
				"owner_id":     ownerID,
				"product_id":   item.ProductID,
			})
			continue
		}
		resolved = append(resolved, item)
	}

	logger.Debug("Cart items selected by owner in database", map[string]interface{}{
		"owner_id": ownerID,
		"count":    len(resolved),
	})
	return resolved, nil
}

func (r *cartRepository) FindByOwnerAndProduct(ownerID, productID string) (*model.CartItem, error) {
	logger.Debug("Finding cart item by owner and product in database", map[string]interface{}{
		"owner_id":   ownerID,
		"product_id": productID,
	})

	var cartItem model.CartItem
	err := r.db.Where("owner_id = ? AND product_id = ?", ownerID, productID).
		First(&cartItem).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart item by owner and product in database", err, map[string]interface{}{
				"owner_id":   ownerID,
				"product_id": productID,
			})
		}
		return nil, err
	}

	logger.Debug("Cart item found by owner and product in database", map[string]interface{}{
		"cart_item_id": cartItem.ID,
		"owner_id":     ownerID,
		"product_id":   productID,
	})
	return &cartItem, nil
}

func (r *cartRepository) Insert(cartItem *model.CartItem) error {
	logger.Debug("Inserting cart item in database", map[string]interface{}{
		"owner_id":   cartItem.OwnerID,
		"product_id": cartItem.ProductID,
		"quantity":   cartItem.Quantity,
	})

	if err := r.db.Create(cartItem).Error; err != nil {
		logger.Error("Failed to insert cart item in database", err, map[string]interface{}{
			"owner_id":   cartItem.OwnerID,
			"product_id": cartItem.ProductID,
			"quantity":   cartItem.Quantity,
		})
		return err
	}

	logger.Debug("Cart item inserted in database", map[string]interface{}{
		"cart_item_id": cartItem.ID,
		"owner_id":     cartItem.OwnerID,
		"product_id":   cartItem.ProductID,
	})
	return nil
}

func (r *cartRepository) UpdateQuantity(id uint, quantity int) error {
	logger.Debug("Updating cart item quantity in database", map[string]interface{}{
		"cart_item_id": id,
		"quantity":     quantity,
	})

	if err := r.db.Model(&model.CartItem{}).Where("id = ?", id).
		Update("quantity", quantity).Error; err != nil {
		logger.Error("Failed to update cart item quantity in database", err, map[string]interface{}{
			"cart_item_id": id,
			"quantity":     quantity,
		})
		return err
	}

	logger.Debug("Cart item quantity updated in database", map[string]interface{}{
		"cart_item_id": id,
		"quantity":     quantity,
	})
	return nil
}

func (r *cartRepository) DeleteByOwnerAndProduct(ownerID, productID string) error {
	logger.Debug("Deleting cart item by owner and product from database", map[string]interface{}{
		"owner_id":   ownerID,
		"product_id": productID,
	})

	if err := r.db.Where("owner_id = ? AND product_id = ?", ownerID, productID).
		Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart item by owner and product from database", err, map[string]interface{}{
			"owner_id":   ownerID,
			"product_id": productID,
		})
		return err
	}

	logger.Debug("Cart item deleted by owner and product from database", map[string]interface{}{
		"owner_id":   ownerID,
		"product_id": productID,
	})
	return nil
}

func (r *cartRepository) DeleteAllByOwner(ownerID string) error {
	logger.Debug("Deleting all cart items by owner from database", map[string]interface{}{
		"owner_id": ownerID,
	})

	if err := r.db.Where("owner_id = ?", ownerID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items by owner from database", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return err
	}

	logger.Debug("Cart items deleted by owner from database", map[string]interface{}{
		"owner_id": ownerID,
	})
	return nil
}
