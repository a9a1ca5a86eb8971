package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	"leadpilot/internal/config"
	"leadpilot/internal/http"
)

// publicCORSConfig returns the standard CORS configuration for the public
// redirect endpoint. Tracked links get opened from mail clients and
// arbitrary referrers, so CORS stays permissive there.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Referrer, User-Agent",
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()

	// Helper to conditionally apply rate limiting (only in production)
	// In development/test, rate limiting would interfere with testing
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Rate limiter for the public redirect endpoint (120 requests per
	// minute per IP). Generous enough for bursts of clicks behind a NAT
	// while still capping scripted ref scanning.
	redirectRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(120),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Public redirect config: rate limiting + permissive CORS
	redirectConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		CustomMiddleware: []fiber.Handler{redirectRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	// Internal API config: no CORS, serialized writes handled per-handler
	apiConfig := &cartridge.RouteConfig{}

	// Health check endpoint
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === PUBLIC REDIRECT ===
	srv.Get("/r/:ref", http.RedirectAction, redirectConfig)

	// === LEADS ===
	srv.Get("/api/v1/leads", http.LeadsListAction, apiConfig)
	srv.Post("/api/v1/leads", http.LeadCreateAction, apiConfig)
	srv.Get("/api/v1/leads/:id", http.LeadShowAction, apiConfig)
	srv.Delete("/api/v1/leads/:id", http.LeadDeleteAction, apiConfig)

	// === PRODUCTS ===
	srv.Get("/api/v1/products", http.ProductsListAction, apiConfig)
	srv.Post("/api/v1/products", http.ProductCreateAction, apiConfig)
	srv.Get("/api/v1/products/:id", http.ProductShowAction, apiConfig)
	srv.Post("/api/v1/products/:id", http.ProductUpdateAction, apiConfig)
	srv.Delete("/api/v1/products/:id", http.ProductDeleteAction, apiConfig)

	// Message templates hang off their product
	srv.Get("/api/v1/products/:id/messages", http.MessagesListAction, apiConfig)
	srv.Post("/api/v1/products/:id/messages", http.MessageCreateAction, apiConfig)

	// === CAMPAIGNS ===
	srv.Get("/api/v1/campaigns", http.CampaignsListAction, apiConfig)
	srv.Post("/api/v1/campaigns", http.CampaignCreateAction, apiConfig)
	srv.Get("/api/v1/campaigns/:id", http.CampaignShowAction, apiConfig)
	srv.Post("/api/v1/campaigns/:id", http.CampaignUpdateAction, apiConfig)
	srv.Delete("/api/v1/campaigns/:id", http.CampaignDeleteAction, apiConfig)

	srv.Post("/api/v1/campaigns/:id/enroll", http.CampaignEnrollAction, apiConfig)
	srv.Get("/api/v1/campaigns/:id/leads", http.CampaignLeadsListAction, apiConfig)
	srv.Get("/api/v1/campaigns/:id/stats", http.CampaignStatsAction, apiConfig)
	srv.Post("/api/v1/campaigns/:id/stats/opens", http.CampaignOpensUpdateAction, apiConfig)

	srv.Get("/api/v1/campaigns/:id/links", http.CampaignLinksListAction, apiConfig)
	srv.Post("/api/v1/campaigns/:id/links", http.LinkCreateAction, apiConfig)

	// === ENROLLMENTS ===
	srv.Post("/api/v1/campaign-leads/:id/convert", http.ConvertAction, apiConfig)

	// === LINKS ===
	srv.Get("/api/v1/links/:id", http.LinkShowAction, apiConfig)
	srv.Post("/api/v1/links/:id", http.LinkUpdateAction, apiConfig)

	// === ASSIGNMENTS ===
	srv.Post("/api/v1/assignments", http.AssignmentCreateAction, apiConfig)
	srv.Get("/api/v1/assignments/:id", http.AssignmentShowAction, apiConfig)
	srv.Post("/api/v1/assignments/:id/send", http.AssignmentSendAction, apiConfig)
	srv.Post("/api/v1/assignments/:id/respond", http.AssignmentRespondAction, apiConfig)
}
