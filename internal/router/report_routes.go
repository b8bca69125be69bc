package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"invoicehub-backend/internal/config"
	"invoicehub-backend/internal/handler"
	"invoicehub-backend/internal/middleware"
)

// RegisterReports registers the aggregation endpoints under /v1/reports.
// Reports scan every invoice of the company, so they sit behind the Redis
// token-bucket rate limiter and the response cache when Redis is
// configured. With rdb nil both middlewares fail open and the routes run
// bare.
func RegisterReports(e *echo.Echo, h *handler.ReportHandler, jwtSecret string, rdb *redis.Client) {
	mw := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret)}
	if rdb != nil {
		mw = append(mw,
			middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
			middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		)
	}
	g := e.Group("/v1/reports", mw...)

	g.GET("/ar-aging", h.ARAging)
	g.GET("/revenue", h.Revenue)
}
