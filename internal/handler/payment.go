package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"invoicehub-backend/internal/billing"
	"invoicehub-backend/internal/model"
	"invoicehub-backend/internal/repository"
)

// PaymentHandler records payments and suggests allocations.
type PaymentHandler struct {
	Payments *repository.PaymentRepo
	Invoices *repository.InvoiceRepo
}

func NewPaymentHandler(p *repository.PaymentRepo, i *repository.InvoiceRepo) *PaymentHandler {
	return &PaymentHandler{Payments: p, Invoices: i}
}

type allocationReq struct {
	InvoiceID uint64  `json:"invoice_id"`
	Amount    float64 `json:"amount"`
}

type createPaymentReq struct {
	ClientID    uint64          `json:"client_id"`
	Amount      float64         `json:"amount"`
	Method      string          `json:"method"`
	Reference   *string         `json:"reference"`
	ReceivedAt  *time.Time      `json:"received_at"`
	Allocations []allocationReq `json:"allocations"`
}

// Create handles POST /v1/payments. The allocation set must carry at least
// one positive entry; each allocation is clamped to the invoice's open
// balance inside the repository transaction.
func (h *PaymentHandler) Create(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ClientID == 0 || req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_id and positive amount required"})
	}

	entries := make(map[uint64]float64, len(req.Allocations))
	for _, a := range req.Allocations {
		entries[a.InvoiceID] += a.Amount
	}
	if !billing.CanSubmit(entries) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one allocation required"})
	}
	summary := billing.Allocations(entries, req.Amount)
	if summary.Remaining < -billing.MatchTolerance {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "allocations exceed payment amount"})
	}

	method := strings.ToLower(req.Method)
	if method != model.PaymentCard {
		method = model.PaymentManual
	}
	receivedAt := time.Now().UTC()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	p := model.Payment{
		CompanyID:  companyID,
		ClientID:   req.ClientID,
		Amount:     req.Amount,
		Method:     method,
		Reference:  req.Reference,
		ReceivedAt: receivedAt,
	}
	allocs := make([]model.PaymentAllocation, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		if a.Amount > 0 {
			allocs = append(allocs, model.PaymentAllocation{InvoiceID: a.InvoiceID, Amount: a.Amount})
		}
	}
	if err := h.Payments.CreateWithAllocations(ctx, &p, allocs); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "invoice belongs to another company"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "draft and consolidated invoices cannot receive payments"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record payment failed"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"payment": p, "allocations": allocs})
}

// List handles GET /v1/payments?client_id=.
func (h *PaymentHandler) List(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	clientID, err := parseUint(c.QueryParam("client_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payments, err := h.Payments.ListByClient(ctx, companyID, clientID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payments failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": payments})
}

// Match handles GET /v1/payments/match?client_id=&amount=[&project_id=]:
// the open invoice whose balance is closest to the typed amount, if any
// falls within tolerance. Used by the payment modal to pre-fill a single
// allocation.
func (h *PaymentHandler) Match(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	clientID, err := parseUint(c.QueryParam("client_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_id required"})
	}
	amount, err := strconv.ParseFloat(c.QueryParam("amount"), 64)
	if err != nil || amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "positive amount required"})
	}
	var projectID *uint64
	if raw := c.QueryParam("project_id"); raw != "" {
		id, err := parseUint(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project_id"})
		}
		projectID = &id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	open, err := h.Invoices.ListOpenByClient(ctx, companyID, clientID, projectID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load open invoices failed"})
	}
	matched, ok := billing.AutoMatch(open, amount)
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{"matched": false, "open_invoices": open})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"matched":       true,
		"invoice":       matched,
		"allocation":    matched.OpenBalance(),
		"open_invoices": open,
	})
}
