package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"leadpilot/internal"
	"leadpilot/internal/campaigns"
	"leadpilot/internal/config"
	"leadpilot/internal/leads"
	"leadpilot/internal/links"
	"leadpilot/internal/messages"
	"leadpilot/internal/products"
	"leadpilot/internal/stats"
	"leadpilot/internal/tasks"
)

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with leadpilot's interface
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

// Ensure TestDBManager implements cartridge.DBManager
var _ cartridge.DBManager = (*TestDBManager)(nil)

// allModels returns all leadpilot models for migration
func allModels() []any {
	return []any{
		&leads.Lead{},
		&products.Product{},
		&campaigns.Campaign{},
		&campaigns.CampaignLead{},
		&links.Link{},
		&messages.Message{},
		&messages.MessageAssignment{},
		&stats.CampaignStats{},
		&tasks.Task{},
	}
}

// SetupTestDB creates a test database with all leadpilot models migrated.
// Uses a named in-memory database with cache=shared to allow multiple connections
// to share the same database within a test. Caches the database by test name
// so multiple calls within the same test return the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()

	// Use root test name for caching to handle closure issues where
	// setup functions capture the outer t while t.Run has subtest t
	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	// Check cache first
	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	// Create a unique named in-memory database for each test
	// cache=shared allows multiple connections to the same database
	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	// Apply SQLite pragmas
	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	// Auto-migrate models
	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	// Cache the database
	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	// Register cleanup
	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()

	// SAFETY CHECK: Ensure we're in test environment
	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set LEADPILOT_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	logger := GetLogger()
	dbManager := NewTestDBManager(db)

	return dbManager, logger
}

// CleanTables clears the given tables, or every non-system table when none
// are specified
func CleanTables(db *gorm.DB, tables []string) {
	if len(tables) == 0 {
		var tableNames []string
		db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)
		tables = tableNames
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateTestProduct creates a product fixture
func CreateTestProduct(t *testing.T, db *gorm.DB, name, landingURL string) *products.Product {
	t.Helper()

	product := &products.Product{
		Name:           name,
		LandingPageURL: landingURL,
	}
	require.NoError(t, products.CreateProduct(db, product))
	return product
}

// CreateTestLead creates a lead fixture
func CreateTestLead(t *testing.T, db *gorm.DB, email string) *leads.Lead {
	t.Helper()

	lead := &leads.Lead{
		FullName:    "Test Person",
		Email:       email,
		CompanyName: "Acme Inc",
		Source:      leads.SourceForm,
		LeadType:    leads.TypeCold,
	}
	require.NoError(t, leads.CreateLead(db, lead))
	return lead
}

// CreateTestCampaign creates a campaign fixture tied to a product
func CreateTestCampaign(t *testing.T, db *gorm.DB, name string, productID uint) *campaigns.Campaign {
	t.Helper()

	campaign := &campaigns.Campaign{
		Name:      name,
		ProductID: productID,
		StartDate: time.Now().UTC(),
		IsActive:  true,
	}
	require.NoError(t, campaigns.CreateCampaign(db, campaign))
	return campaign
}

// EnrollTestLead enrolls a lead fixture into a campaign
func EnrollTestLead(t *testing.T, db *gorm.DB, campaignID, leadID uint) *campaigns.CampaignLead {
	t.Helper()

	cl, err := campaigns.EnrollLead(db, campaignID, leadID)
	require.NoError(t, err)
	return cl
}

// CreateTestMessage creates a message template fixture
func CreateTestMessage(t *testing.T, db *gorm.DB, productID uint) *messages.Message {
	t.Helper()

	message := &messages.Message{
		ProductID: productID,
		Subject:   "Quick question, {first_name}",
		Intro:     "Hi {first_name},",
		Content:   "I noticed {company} might benefit from our product.",
		CTA:       "Take a look: {cta_url}",
	}
	require.NoError(t, messages.CreateMessage(db, message))
	return message
}

// CreateMinimalTestApp creates a test Fiber app with all routes
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}
