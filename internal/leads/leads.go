// Package leads manages contact records imported from the various
// acquisition channels (scraping, forms, newsletter opt-ins).
package leads

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// LeadSource classifies where a lead was acquired from
type LeadSource string

const (
	SourceLinkedInScrape LeadSource = "linkedin_scrape"
	SourceSocial         LeadSource = "social"
	SourceNewsletter     LeadSource = "newsletter"
	SourceForm           LeadSource = "form"
)

// LeadType classifies how warm a lead is
type LeadType string

const (
	TypeCold     LeadType = "cold"
	TypeWarm     LeadType = "warm"
	TypeHot      LeadType = "hot"
	TypeCustomer LeadType = "customer"
)

// ValidSources returns all valid lead sources
func ValidSources() []LeadSource {
	return []LeadSource{SourceLinkedInScrape, SourceSocial, SourceNewsletter, SourceForm}
}

// ValidTypes returns all valid lead types
func ValidTypes() []LeadType {
	return []LeadType{TypeCold, TypeWarm, TypeHot, TypeCustomer}
}

// IsValidSource checks if the given source is valid
func IsValidSource(s LeadSource) bool {
	for _, valid := range ValidSources() {
		if s == valid {
			return true
		}
	}
	return false
}

// IsValidType checks if the given type is valid
func IsValidType(t LeadType) bool {
	for _, valid := range ValidTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

// Lead represents a contact that can be enrolled into campaigns
type Lead struct {
	ID              uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FullName        string `gorm:"not null;size:255" json:"full_name"`
	FirstName       string `gorm:"size:100" json:"first_name"`
	LastName        string `gorm:"size:100" json:"last_name"`
	Position        string `gorm:"size:100" json:"position"`
	Email           string `gorm:"unique;not null" json:"email"`
	PhoneNumber     string `gorm:"size:20" json:"phone_number"`
	LinkedInProfile string `json:"linkedin_profile"`

	CompanyName    string `gorm:"not null;size:255" json:"company_name"`
	CompanyWebsite string `json:"company_website"`
	Industry       string `gorm:"size:100" json:"industry"`
	EmployeeCount  string `gorm:"size:50" json:"employee_count"`

	Source   LeadSource `gorm:"size:50;not null;index" json:"source"`
	LeadType LeadType   `gorm:"size:20;not null;index" json:"lead_type"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Lead) TableName() string {
	return "leads"
}

// Filter narrows lead queries by classification
type Filter struct {
	Source   LeadSource
	LeadType LeadType
}

// CreateLead creates a new lead after validating its classification
func CreateLead(db *gorm.DB, lead *Lead) error {
	if lead.Email == "" {
		return fmt.Errorf("lead email is required")
	}
	if lead.FullName == "" {
		return fmt.Errorf("lead full name is required")
	}
	if !IsValidSource(lead.Source) {
		return fmt.Errorf("invalid lead source: %s", lead.Source)
	}
	if !IsValidType(lead.LeadType) {
		return fmt.Errorf("invalid lead type: %s", lead.LeadType)
	}

	lead.Email = strings.ToLower(strings.TrimSpace(lead.Email))
	if lead.FirstName == "" && lead.FullName != "" {
		lead.FirstName, lead.LastName = splitFullName(lead.FullName)
	}
	lead.CreatedAt = time.Now().UTC()

	return db.Create(lead).Error
}

// splitFullName derives first/last name from a full name when not provided
func splitFullName(fullName string) (string, string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// GetLeadByID retrieves a lead by its ID
func GetLeadByID(db *gorm.DB, id uint) (*Lead, error) {
	var lead Lead
	if err := db.First(&lead, id).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetLeadByEmail retrieves a lead by its email
func GetLeadByEmail(db *gorm.DB, email string) (*Lead, error) {
	var lead Lead
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&lead).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetLeads retrieves leads matching the given filter, newest first
func GetLeads(db *gorm.DB, filter Filter) ([]Lead, error) {
	query := db.Model(&Lead{})
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.LeadType != "" {
		query = query.Where("lead_type = ?", filter.LeadType)
	}

	var result []Lead
	if err := query.Order("created_at DESC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to get leads: %w", err)
	}
	return result, nil
}

// DeleteLead deletes a lead by its ID
func DeleteLead(db *gorm.DB, id uint) error {
	result := db.Delete(&Lead{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
