package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"invoicehub-backend/internal/config"
)

func reportContext(e *echo.Echo, target string, company interface{}) echo.Context {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/reports/ar-aging")
	if company != nil {
		c.Set("company_id", company)
	}
	return c
}

func TestCacheKeySeparatesCompanies(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

	a := cacheKeyFrom(cfg, reportContext(e, "/v1/reports/ar-aging", uint64(1)))
	b := cacheKeyFrom(cfg, reportContext(e, "/v1/reports/ar-aging", uint64(2)))
	if a == b {
		t.Fatalf("same key %q for two companies on the same route", a)
	}
}

func TestCacheKeyStableAcrossClaimTypes(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

	// JWT numeric claims decode as float64; repository ids are uint64. Both
	// must map onto the same key so a HIT survives the type difference.
	asFloat := cacheKeyFrom(cfg, reportContext(e, "/v1/reports/ar-aging", float64(7)))
	asUint := cacheKeyFrom(cfg, reportContext(e, "/v1/reports/ar-aging", uint64(7)))
	if asFloat != asUint {
		t.Errorf("float64 claim key %q != uint64 claim key %q", asFloat, asUint)
	}
}

func TestCacheKeyHonorsQueryAndStrategy(t *testing.T) {
	e := echo.New()
	routeQuery := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	routeOnly := config.CacheConfig{Prefix: "cache", KeyStrategy: "route"}

	plain := cacheKeyFrom(routeQuery, reportContext(e, "/v1/reports/ar-aging", uint64(1)))
	csv := cacheKeyFrom(routeQuery, reportContext(e, "/v1/reports/ar-aging?export=csv", uint64(1)))
	if plain == csv {
		t.Errorf("route_query strategy ignored the query string")
	}

	plain = cacheKeyFrom(routeOnly, reportContext(e, "/v1/reports/ar-aging", uint64(1)))
	csv = cacheKeyFrom(routeOnly, reportContext(e, "/v1/reports/ar-aging?export=csv", uint64(1)))
	if plain != csv {
		t.Errorf("route strategy must not key on the query string")
	}
}
