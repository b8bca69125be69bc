package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"invoicehub-backend/internal/handler"
	"invoicehub-backend/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and the public invoice page reached through the
// unguessable view token.
func RegisterRoutes(e *echo.Echo, inv *handler.InvoiceHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/public/invoices/:token", inv.PublicView)
}

// RegisterAuth registers authentication routes. Register, login and
// refresh live under /v1/auth without middleware; /v1/me requires a valid
// access token. Logout accepts either a bearer token or a refresh token
// in the body, so it stays outside the JWT group and parses the header
// itself.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	auth := e.Group("/v1/auth")
	auth.POST("/register", a.Register)
	auth.POST("/login", a.Login)
	auth.POST("/refresh", a.Refresh)
	auth.POST("/logout", a.Logout)

	protected := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	protected.GET("/me", a.Me)
}
