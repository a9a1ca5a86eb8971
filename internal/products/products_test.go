package products_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadpilot/internal/products"
	"leadpilot/internal/testsupport"
)

func TestCreateProductNormalizesLandingURL(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	product := &products.Product{
		Name:           "Widget",
		LandingPageURL: "https://example.com",
	}
	require.NoError(t, products.CreateProduct(db, product))
	assert.Equal(t, "https://example.com/", product.LandingPageURL)

	found, err := products.GetProductByID(db, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", found.LandingPageURL)
}

func TestCreateProductRequiresName(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	err := products.CreateProduct(db, &products.Product{LandingPageURL: "https://example.com"})
	require.Error(t, err)
}

func TestUpdateProductNormalizesLandingURL(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	product := testsupport.CreateTestProduct(t, db, "Widget", "https://example.com/widget")

	product.LandingPageURL = "https://example.com/new"
	product.Description = "Updated copy"
	require.NoError(t, products.UpdateProduct(db, product))

	found, err := products.GetProductByID(db, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new/", found.LandingPageURL)
	assert.Equal(t, "Updated copy", found.Description)
}

func TestDeleteProduct(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	product := testsupport.CreateTestProduct(t, db, "Ephemeral", "https://example.com/e")
	require.NoError(t, products.DeleteProduct(db, product.ID))

	_, err := products.GetProductByID(db, product.ID)
	require.Error(t, err)

	// Deleting again reports not found
	require.Error(t, products.DeleteProduct(db, product.ID))
}
