package internal

import (
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
)

func TestRedirectRouteRateLimited(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: MountAppRoutes,
	})
	routes := srv.App.GetRoutes(true)

	var redirectRoute *fiber.Route
	for idx := range routes {
		route := routes[idx]
		if route.Method == fiber.MethodGet && route.Path == "/r/:ref" {
			redirectRoute = &routes[idx]
			break
		}
	}

	require.NotNil(t, redirectRoute, "expected redirect route to be registered")

	// The rate limiter is wrapped in a conditional function that only applies
	// in production. In test environment, it passes through but the wrapper
	// still exists. Check for the conditional wrapper (defined in MountAppRoutes).
	hasRateLimiter := false
	var handlerNames []string
	for _, handler := range redirectRoute.Handlers {
		name := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
		handlerNames = append(handlerNames, name)
		if strings.Contains(name, "middleware/limiter") || strings.Contains(name, "MountAppRoutes.func") {
			hasRateLimiter = true
			break
		}
	}

	require.Truef(t, hasRateLimiter, "expected rate limiter middleware for redirect route, handlers: %v", handlerNames)
}

func TestAPIRoutesRegistered(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: MountAppRoutes,
	})
	routes := srv.App.GetRoutes(true)

	registered := make(map[string]bool)
	for _, route := range routes {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"GET /_health",
		"GET /r/:ref",
		"GET /api/v1/leads",
		"POST /api/v1/leads",
		"POST /api/v1/campaigns/:id/enroll",
		"GET /api/v1/campaigns/:id/stats",
		"POST /api/v1/campaigns/:id/stats/opens",
		"POST /api/v1/campaign-leads/:id/convert",
		"POST /api/v1/campaigns/:id/links",
		"POST /api/v1/assignments/:id/send",
	}
	for _, want := range expected {
		require.Truef(t, registered[want], "expected route %q to be registered", want)
	}
}
