package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fixgearlabs/fixgear-cart/internal/app/model"
	"github.com/fixgearlabs/fixgear-cart/internal/db"
)

func setupProductTest(t *testing.T) (*gorm.DB, ProductRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	return testDB, NewProductRepository(testDB)
}

func TestProductRepository_Create(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	product := &model.Product{
		Name:     "Frame Fixie Aluminium",
		Price:    2500000,
		Stock:    5,
		Category: "frames",
		Brand:    "FixGear",
	}

	err := repo.Create(product)
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
}

func TestProductRepository_BulkCreate(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	products := []model.Product{
		{Name: "Ban Luar 700c", Price: 150000, Stock: 20, Category: "tires"},
		{Name: "Stang Drop", Price: 450000, Stock: 8, Category: "handlebars"},
		{Name: "Sadel Kulit", Price: 350000, Stock: 12, Category: "saddles"},
	}

	err := repo.BulkCreate(products, 2)
	require.NoError(t, err)

	found, err := repo.FindAll(ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestProductRepository_FindAll_Filters(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	featured := true
	require.NoError(t, repo.Create(&model.Product{Name: "Frame Fixie", Price: 2500000, Category: "frames", Brand: "FixGear", Featured: true}))
	require.NoError(t, repo.Create(&model.Product{Name: "Frame Jalan", Price: 4500000, Category: "frames", Brand: "Rodalink"}))
	require.NoError(t, repo.Create(&model.Product{Name: "Ban Luar", Price: 150000, Category: "tires", Brand: "FixGear"}))

	byCategory, err := repo.FindAll(ProductFilter{Category: "frames"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	byBrand, err := repo.FindAll(ProductFilter{Brand: "FixGear"})
	require.NoError(t, err)
	assert.Len(t, byBrand, 2)

	byFeatured, err := repo.FindAll(ProductFilter{Featured: &featured})
	require.NoError(t, err)
	require.Len(t, byFeatured, 1)
	assert.Equal(t, "Frame Fixie", byFeatured[0].Name)

	bySearch, err := repo.FindAll(ProductFilter{Search: "Frame"})
	require.NoError(t, err)
	assert.Len(t, bySearch, 2)
}

func TestProductRepository_FindAll_Pagination(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	for _, name := range []string{"A", "B", "C", "D"} {
		require.NoError(t, repo.Create(&model.Product{Name: name, Price: 1000}))
	}

	page, err := repo.FindAll(ProductFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestProductRepository_FindByID(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	product := &model.Product{Name: "Frame Fixie", Price: 2500000}
	require.NoError(t, repo.Create(product))

	found, err := repo.FindByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.Name, found.Name)
}

func TestProductRepository_FindByID_NotFound(t *testing.T) {
	testDB, repo := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := repo.FindByID("missing-id")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
