package router

import (
	"github.com/labstack/echo/v4"

	"invoicehub-backend/internal/handler"
	"invoicehub-backend/internal/middleware"
)

// RegisterInvoices registers the invoice lifecycle and payment endpoints
// under /v1. Reading is open to any authenticated member; consolidation
// and deletion are ADMIN-only since both irreversibly reshape the ledger.
func RegisterInvoices(e *echo.Echo, h *handler.InvoiceHandler, p *handler.PaymentHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	// ---- Invoices ----
	g.POST("/invoices", h.Create)
	g.GET("/invoices", h.List)
	g.GET("/invoices/:id", h.Get)
	g.PUT("/invoices/:id", h.Update)
	g.POST("/invoices/:id/send", h.Send)
	g.GET("/invoices/:id/print", h.Print)

	admin := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN"))
	admin.DELETE("/invoices/:id", h.Delete)
	admin.POST("/invoices/consolidate", h.Consolidate)

	// ---- Payments ----
	g.POST("/payments", p.Create)
	g.GET("/payments", p.List)
	g.GET("/payments/match", p.Match)
}
