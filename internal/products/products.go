// Package products manages the products that campaigns promote.
package products

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"leadpilot/internal/pkg/urls"
)

// Product represents something campaigns drive traffic to
type Product struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"not null;size:255" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	LandingPageURL string    `json:"landing_page_url"` // Normalized on every save
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Product) TableName() string {
	return "products"
}

// CreateProduct creates a new product, normalizing its landing page URL
func CreateProduct(db *gorm.DB, product *Product) error {
	if product.Name == "" {
		return fmt.Errorf("product name is required")
	}

	product.LandingPageURL = urls.Normalize(product.LandingPageURL)

	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	return db.Create(product).Error
}

// UpdateProduct updates an existing product, normalizing its landing page URL
func UpdateProduct(db *gorm.DB, product *Product) error {
	if product.ID == 0 {
		return fmt.Errorf("product ID is required")
	}
	if product.Name == "" {
		return fmt.Errorf("product name is required")
	}

	product.LandingPageURL = urls.Normalize(product.LandingPageURL)
	product.UpdatedAt = time.Now().UTC()

	return db.Model(product).
		Select("name", "description", "landing_page_url", "updated_at").
		Updates(product).Error
}

// GetProductByID retrieves a product by its ID
func GetProductByID(db *gorm.DB, id uint) (*Product, error) {
	var product Product
	if err := db.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetAllProducts retrieves all products
func GetAllProducts(db *gorm.DB) ([]Product, error) {
	var products []Product
	if err := db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

// DeleteProduct deletes a product by its ID
func DeleteProduct(db *gorm.DB, id uint) error {
	result := db.Delete(&Product{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
