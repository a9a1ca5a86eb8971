// Package seeder populates the database with demo data for local
// development: a product, a campaign, enrolled leads, message
// assignments and a spread of tracked link visits.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"leadpilot/internal/campaigns"
	"leadpilot/internal/leads"
	"leadpilot/internal/links"
	"leadpilot/internal/messages"
	"leadpilot/internal/products"
	"leadpilot/internal/stats"
)

// Seeder handles the demo data seeding process
type Seeder struct {
	DBManager cartridge.DBManager
	Logger    *slog.Logger
	LeadCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, leadCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if leadCount <= 0 {
		leadCount = 50
	}
	return &Seeder{
		DBManager: dbManager,
		Logger:    logger,
		LeadCount: leadCount,
	}
}

var demoCompanies = []struct {
	name     string
	website  string
	industry string
	size     string
}{
	{"Northwind Logistics", "https://northwind.example.com", "Logistics", "51-200"},
	{"Acme Robotics", "https://acme-robotics.example.com", "Manufacturing", "201-500"},
	{"Blue Harbor Media", "https://blueharbor.example.com", "Media", "11-50"},
	{"Vertex Analytics", "https://vertex.example.com", "Software", "51-200"},
	{"Greenfield Energy", "https://greenfield.example.com", "Energy", "501-1000"},
	{"Summit Consulting", "https://summit.example.com", "Consulting", "11-50"},
	{"Pioneer Health", "https://pioneerhealth.example.com", "Healthcare", "1001-5000"},
	{"Cobalt Finance", "https://cobalt.example.com", "Finance", "201-500"},
}

var demoFirstNames = []string{"Alex", "Jordan", "Sam", "Taylor", "Casey", "Morgan", "Riley", "Jamie", "Avery", "Quinn"}
var demoLastNames = []string{"Smith", "Garcia", "Chen", "Patel", "Johnson", "Kim", "Novak", "Silva", "Murphy", "Weber"}
var demoPositions = []string{"CEO", "CTO", "Head of Growth", "Marketing Director", "Operations Manager", "VP Sales"}

// Run seeds a complete demo dataset
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	db := s.DBManager.GetConnection()

	s.Logger.Info("Seeding demo data...", slog.Int("leadCount", s.LeadCount))

	product, err := s.seedProduct(db)
	if err != nil {
		return err
	}

	message, err := s.seedMessage(db, product.ID)
	if err != nil {
		return err
	}

	campaign, err := s.seedCampaign(db, product.ID)
	if err != nil {
		return err
	}

	seededLeads, err := s.seedLeads(ctx, db)
	if err != nil {
		return err
	}

	if err := s.seedEnrollments(ctx, db, campaign, message, seededLeads); err != nil {
		return err
	}

	if err := stats.Recompute(s.Logger, db, campaign.ID); err != nil {
		return err
	}

	s.Logger.Info("Seeding completed",
		slog.Uint64("campaignID", uint64(campaign.ID)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) seedProduct(db *gorm.DB) (*products.Product, error) {
	existing, err := products.GetAllProducts(db)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		s.Logger.Info("Product already seeded", slog.Uint64("id", uint64(existing[0].ID)))
		return &existing[0], nil
	}

	product := &products.Product{
		Name:           "Leadpilot Demo Suite",
		Description:    "Outbound campaign tooling for small teams",
		LandingPageURL: "https://demo.example.com/suite",
	}
	if err := products.CreateProduct(db, product); err != nil {
		return nil, fmt.Errorf("failed to seed product: %w", err)
	}
	return product, nil
}

func (s *Seeder) seedMessage(db *gorm.DB, productID uint) (*messages.Message, error) {
	existing, err := messages.GetMessagesForProduct(db, productID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	message := &messages.Message{
		ProductID: productID,
		Subject:   "Quick question, {first_name}",
		Intro:     "Hi {first_name},",
		Content:   "Teams like {company} use our suite to run outbound campaigns without the spreadsheet sprawl.",
		CTA:       "Here is a two minute overview: {cta_url}",
		PS:        "Happy to share a case study from your industry.",
	}
	if err := messages.CreateMessage(db, message); err != nil {
		return nil, fmt.Errorf("failed to seed message: %w", err)
	}
	return message, nil
}

func (s *Seeder) seedCampaign(db *gorm.DB, productID uint) (*campaigns.Campaign, error) {
	existing, err := campaigns.GetAllCampaigns(db)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	campaign := &campaigns.Campaign{
		Name:      "Demo Launch Campaign",
		ProductID: productID,
		StartDate: time.Now().UTC().AddDate(0, 0, -14),
		IsActive:  true,
	}
	if err := campaigns.CreateCampaign(db, campaign); err != nil {
		return nil, fmt.Errorf("failed to seed campaign: %w", err)
	}
	return campaign, nil
}

func (s *Seeder) seedLeads(ctx context.Context, db *gorm.DB) ([]leads.Lead, error) {
	sources := leads.ValidSources()
	types := leads.ValidTypes()

	created := make([]leads.Lead, 0, s.LeadCount)
	for i := 0; i < s.LeadCount; i++ {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}

		first := demoFirstNames[rand.IntN(len(demoFirstNames))]
		last := demoLastNames[rand.IntN(len(demoLastNames))]
		company := demoCompanies[rand.IntN(len(demoCompanies))]

		lead := leads.Lead{
			FullName:       first + " " + last,
			Position:       demoPositions[rand.IntN(len(demoPositions))],
			Email:          fmt.Sprintf("%s.%s.%d@example.com", first, last, i),
			CompanyName:    company.name,
			CompanyWebsite: company.website,
			Industry:       company.industry,
			EmployeeCount:  company.size,
			Source:         sources[rand.IntN(len(sources))],
			LeadType:       types[rand.IntN(len(types))],
		}
		if err := leads.CreateLead(db, &lead); err != nil {
			return created, fmt.Errorf("failed to seed lead %d: %w", i, err)
		}
		created = append(created, lead)
	}

	s.Logger.Info("Seeded leads", slog.Int("count", len(created)))
	return created, nil
}

// seedEnrollments enrolls the seeded leads and gives each enrollment an
// assignment, a tracked link and a random spread of visits. Roughly a
// tenth of enrollments convert.
func (s *Seeder) seedEnrollments(ctx context.Context, db *gorm.DB, campaign *campaigns.Campaign, message *messages.Message, seededLeads []leads.Lead) error {
	for i := range seededLeads {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		cl, err := campaigns.EnrollLead(db, campaign.ID, seededLeads[i].ID)
		if err != nil {
			var already *campaigns.AlreadyEnrolledError
			if errors.As(err, &already) {
				continue
			}
			return fmt.Errorf("failed to enroll lead: %w", err)
		}

		assignment := &messages.MessageAssignment{
			CampaignLeadID: cl.ID,
			MessageID:      message.ID,
		}
		if err := messages.CreateAssignment(db, assignment); err != nil {
			return fmt.Errorf("failed to seed assignment: %w", err)
		}

		link := &links.Link{
			CampaignID:     campaign.ID,
			CampaignLeadID: &cl.ID,
			UTMSource:      "email",
			UTMMedium:      "email",
			UTMContent:     fmt.Sprintf("email_%d", assignment.ID),
		}
		if err := links.CreateLink(s.Logger, db, link); err != nil {
			return fmt.Errorf("failed to seed link: %w", err)
		}
		if err := db.Model(assignment).Update("link_id", link.ID).Error; err != nil {
			return err
		}

		if err := messages.MarkSent(s.Logger, db, assignment.ID); err != nil {
			return err
		}

		for v := rand.IntN(4); v > 0; v-- {
			if _, err := links.TrackVisit(s.Logger, db, link.Ref); err != nil {
				return fmt.Errorf("failed to seed visit: %w", err)
			}
		}

		if rand.IntN(10) == 0 {
			if _, err := campaigns.Convert(s.Logger, db, cl.ID); err != nil {
				return fmt.Errorf("failed to seed conversion: %w", err)
			}
		}
	}

	s.Logger.Info("Seeded enrollments", slog.Int("count", len(seededLeads)))
	return nil
}
