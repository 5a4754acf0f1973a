package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fixgearlabs/fixgear-cart/internal/app/model"
	"github.com/fixgearlabs/fixgear-cart/internal/db"
)

func setupCartTest(t *testing.T) (*gorm.DB, CartRepository, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	repo := NewCartRepository(testDB)

	// Create test user
	user := &model.User{
		Email:        "rider@example.com",
		PasswordHash: "hash",
		Name:         "Test Rider",
	}
	testDB.Create(user)

	// Create test product
	product := &model.Product{
		Name:     "Frame Fixie Aluminium",
		Price:    2500000,
		Stock:    5,
		Category: "frames",
		Brand:    "FixGear",
	}
	testDB.Create(product)

	return testDB, repo, user, product
}

func TestCartRepository_Insert(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cartItem := &model.CartItem{
		OwnerID:   user.ID,
		ProductID: product.ID,
		Quantity:  2,
	}

	err := repo.Insert(cartItem)
	assert.NoError(t, err)
	assert.NotZero(t, cartItem.ID)
}

func TestCartRepository_SelectByOwner(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	second := &model.Product{Name: "Ban Luar 700c", Price: 150000, Stock: 20}
	testDB.Create(second)

	require.NoError(t, repo.Insert(&model.CartItem{OwnerID: user.ID, ProductID: product.ID, Quantity: 2}))
	require.NoError(t, repo.Insert(&model.CartItem{OwnerID: user.ID, ProductID: second.ID, Quantity: 1}))

	items, err := repo.SelectByOwner(user.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Product relation is resolved
	assert.Equal(t, product.Name, items[0].Product.Name)
	assert.Equal(t, second.Name, items[1].Product.Name)
}

func TestCartRepository_SelectByOwner_IsolatesOwners(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	other := &model.User{Email: "other@example.com", PasswordHash: "hash", Name: "Other"}
	testDB.Create(other)

	require.NoError(t, repo.Insert(&model.CartItem{OwnerID: user.ID, ProductID: product.ID, Quantity: 2}))
	require.NoError(t, repo.Insert(&model.CartItem{OwnerID: other.ID, ProductID: product.ID, Quantity: 1}))

	items, err := repo.SelectByOwner(user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, user.ID, items[0].OwnerID)
}

func TestCartRepository_SelectByOwner_DropsUnresolvedProducts(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	require.NoError(t, repo.Insert(&model.CartItem{OwnerID: user.ID, ProductID: product.ID, Quantity: 2}))

	// Soft-delete the product; its cart row no longer resolves
	require.NoError(t, testDB.Delete(product).Error)

	items, err := repo.SelectByOwner(user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartRepository_FindByOwnerAndProduct(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cartItem := &model.CartItem{OwnerID: user.ID, ProductID: product.ID, Quantity: 2}
	require.NoError(t, repo.Insert(cartItem))

	found, err := repo.FindByOwnerAndProduct(user.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, cartItem.ID, found.ID)
	assert.Equal(t, 2, found.Quantity)
}

func TestCartRepository_FindByOwnerAndProduct_NotFound(t *testing.T) {
	testDB, repo, user, _ := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := repo.FindByOwnerAndProduct(user.ID, "missing-product")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_UpdateQuantity(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cartItem := &model.CartItem{OwnerID: user.ID, ProductID: product.ID, Quantity: 2}
	require.NoError(t, repo.Insert(cartItem))

	err := repo.UpdateQuantity(cartItem.ID, 5)
	require.NoError(t, err)

	found, err := repo.FindByOwnerAndProduct(user.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, found.Quantity)
}

func TestCartRepository_DeleteByOwnerAndProduct(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	require.NoError(t, repo.Insert(&model.CartItem{OwnerID: user.ID, ProductID: product.ID, Quantity: 2}))

	err := repo.DeleteByOwnerAndProduct(user.ID, product.ID)
	require.NoError(t, err)

	items, err := repo.SelectByOwner(user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	// Deleting a missing row is not an error
	assert.NoError(t, repo.DeleteByOwnerAndProduct(user.ID, product.ID))
}

func TestCartRepository_DeleteThenReinsertSameProduct(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	require.NoError(t, repo.Insert(&model.CartItem{OwnerID: user.ID, ProductID: product.ID, Quantity: 2}))
	require.NoError(t, repo.DeleteByOwnerAndProduct(user.ID, product.ID))

	// The deleted row must not occupy the unique (owner_id, product_id)
	// index; re-adding the same product has to succeed.
	err := repo.Insert(&model.CartItem{OwnerID: user.ID, ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	items, err := repo.SelectByOwner(user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestCartRepository_DeleteAllByOwner(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	second := &model.Product{Name: "Stang Drop", Price: 450000, Stock: 8}
	testDB.Create(second)

	require.NoError(t, repo.Insert(&model.CartItem{OwnerID: user.ID, ProductID: product.ID, Quantity: 2}))
	require.NoError(t, repo.Insert(&model.CartItem{OwnerID: user.ID, ProductID: second.ID, Quantity: 1}))

	err := repo.DeleteAllByOwner(user.ID)
	require.NoError(t, err)

	items, err := repo.SelectByOwner(user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	// Cleared products can be added again
	assert.NoError(t, repo.Insert(&model.CartItem{OwnerID: user.ID, ProductID: product.ID, Quantity: 3}))
}
