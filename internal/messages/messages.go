// Package messages manages reusable message templates and their assignment
// to enrolled leads.
package messages

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Message is a reusable outbound template scoped to a product
type Message struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	Subject   string `gorm:"not null;size:255" json:"subject"`
	Intro     string `gorm:"type:text" json:"intro"`
	Content   string `gorm:"type:text;not null" json:"content"`
	CTA       string `gorm:"size:255" json:"cta"`
	PS        string `gorm:"type:text" json:"ps"`
	PPS       string `gorm:"type:text" json:"pps"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}

// CreateMessage creates a new message template
func CreateMessage(db *gorm.DB, message *Message) error {
	if message.Subject == "" {
		return fmt.Errorf("message subject is required")
	}
	if message.Content == "" {
		return fmt.Errorf("message content is required")
	}
	if message.ProductID == 0 {
		return fmt.Errorf("message product ID is required")
	}

	message.CreatedAt = time.Now().UTC()
	return db.Create(message).Error
}

// GetMessageByID retrieves a message by its ID
func GetMessageByID(db *gorm.DB, id uint) (*Message, error) {
	var message Message
	if err := db.First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// GetMessagesForProduct retrieves all templates of a product
func GetMessagesForProduct(db *gorm.DB, productID uint) ([]Message, error) {
	var result []Message
	if err := db.Where("product_id = ?", productID).Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to get product messages: %w", err)
	}
	return result, nil
}

// Template assembles the full message body from the template parts
func (m *Message) Template() string {
	parts := make([]string, 0, 5)
	if m.Intro != "" {
		parts = append(parts, m.Intro)
	}
	parts = append(parts, m.Content)
	if m.CTA != "" {
		parts = append(parts, m.CTA)
	}
	if m.PS != "" {
		parts = append(parts, "PS: "+m.PS)
	}
	if m.PPS != "" {
		parts = append(parts, "PPS: "+m.PPS)
	}
	return strings.Join(parts, "\n\n")
}

// RenderTemplate substitutes {variable} placeholders in a template
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}
