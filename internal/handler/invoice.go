package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"invoicehub-backend/internal/billing"
	"invoicehub-backend/internal/config"
	"invoicehub-backend/internal/model"
	"invoicehub-backend/internal/queue"
	"invoicehub-backend/internal/repository"
	queue_publisher "invoicehub-backend/internal/service"
	"invoicehub-backend/internal/utils"
)

// InvoiceHandler covers the invoice lifecycle: draft CRUD, sending,
// consolidation, the printable document and the public token view.
type InvoiceHandler struct {
	Cfg      config.Config
	Invoices *repository.InvoiceRepo
	Clients  *repository.ClientRepo
	Projects *repository.ProjectRepo
}

func NewInvoiceHandler(cfg config.Config, i *repository.InvoiceRepo, cl *repository.ClientRepo, p *repository.ProjectRepo) *InvoiceHandler {
	return &InvoiceHandler{Cfg: cfg, Invoices: i, Clients: cl, Projects: p}
}

type lineItemReq struct {
	Description      string   `json:"description"`
	Quantity         float64  `json:"quantity"`
	UnitPrice        float64  `json:"unit_price"`
	Amount           float64  `json:"amount"`
	TaskID           *uint64  `json:"task_id"`
	BillingType      *string  `json:"billing_type"`
	BilledPercentage *float64 `json:"billed_percentage"`
}

type invoiceReq struct {
	ClientID  uint64        `json:"client_id"`
	ProjectID *uint64       `json:"project_id"`
	TaxAmount float64       `json:"tax_amount"`
	DueDate   *time.Time    `json:"due_date"`
	Items     []lineItemReq `json:"items"`
}

type sendReq struct {
	DueDate *time.Time `json:"due_date"`
}

type consolidateReq struct {
	InvoiceIDs []uint64 `json:"invoice_ids"`
}

func buildItems(reqs []lineItemReq) ([]model.InvoiceLineItem, float64) {
	items := make([]model.InvoiceLineItem, 0, len(reqs))
	var subtotal float64
	for _, it := range reqs {
		amount := it.Amount
		if amount == 0 {
			amount = it.Quantity * it.UnitPrice
		}
		subtotal += amount
		items = append(items, model.InvoiceLineItem{
			Description:      it.Description,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			Amount:           amount,
			TaskID:           it.TaskID,
			BillingType:      it.BillingType,
			BilledPercentage: it.BilledPercentage,
		})
	}
	return items, subtotal
}

// Create handles POST /v1/invoices. New invoices start as drafts with a
// sequential number and a fresh public view token.
func (h *InvoiceHandler) Create(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req invoiceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ClientID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_id required"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one line item required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Clients.GetByID(ctx, req.ClientID, companyID); err != nil {
		if err == sql.ErrNoRows || err == repository.ErrForbidden {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load client failed"})
	}

	number, err := h.Invoices.NextInvoiceNumber(ctx, companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "allocate invoice number failed"})
	}
	items, subtotal := buildItems(req.Items)
	inv := model.Invoice{
		CompanyID:       companyID,
		ClientID:        req.ClientID,
		ProjectID:       req.ProjectID,
		InvoiceNumber:   number,
		Status:          model.InvoiceDraft,
		Subtotal:        subtotal,
		TaxAmount:       req.TaxAmount,
		Total:           subtotal + req.TaxAmount,
		DueDate:         req.DueDate,
		PublicViewToken: utils.NewPublicViewToken(),
	}
	if err := h.Invoices.Create(ctx, &inv, items); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "invoice number already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create invoice failed"})
	}
	return c.JSON(http.StatusCreated, inv)
}

// List handles GET /v1/invoices with optional status, client_id and
// export=csv parameters.
func (h *InvoiceHandler) List(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var clientID *uint64
	if raw := c.QueryParam("client_id"); raw != "" {
		id, err := parseUint(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client_id"})
		}
		clientID = &id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	invoices, err := h.Invoices.ListByCompany(ctx, companyID, c.QueryParam("status"), clientID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invoices failed"})
	}

	if c.QueryParam("export") == "csv" {
		return writeInvoiceCSV(c, invoices)
	}
	return c.JSON(http.StatusOK, echo.Map{"invoices": invoices, "total": len(invoices)})
}

func writeInvoiceCSV(c echo.Context, invoices []model.Invoice) error {
	header := []string{"invoice_number", "status", "client_id", "subtotal", "tax_amount", "total", "amount_paid", "due_date", "created_at"}
	rows := make([][]string, 0, len(invoices))
	for _, inv := range invoices {
		due := ""
		if inv.DueDate != nil {
			due = inv.DueDate.Format("2006-01-02")
		}
		rows = append(rows, []string{
			inv.InvoiceNumber,
			inv.Status,
			strconv.FormatUint(inv.ClientID, 10),
			fmt.Sprintf("%.2f", inv.Subtotal),
			fmt.Sprintf("%.2f", inv.TaxAmount),
			fmt.Sprintf("%.2f", inv.Total),
			fmt.Sprintf("%.2f", inv.AmountPaid),
			due,
			inv.CreatedAt.Format("2006-01-02"),
		})
	}
	data, err := utils.BuildCSV(header, rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "build csv failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", utils.CSVFilename("invoices", time.Now())))
	return c.Blob(http.StatusOK, "text/csv", data)
}

// Get handles GET /v1/invoices/:id, returning the invoice with its line
// items.
func (h *InvoiceHandler) Get(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	inv, err := h.Invoices.GetByID(ctx, id, companyID)
	if err != nil {
		return invoiceError(c, err, "load invoice failed")
	}
	items, err := h.Invoices.LineItems(ctx, inv.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load line items failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"invoice": inv, "items": items})
}

// Update handles PUT /v1/invoices/:id. Only drafts are editable.
func (h *InvoiceHandler) Update(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}
	var req invoiceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ClientID == 0 || len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_id and items required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, subtotal := buildItems(req.Items)
	inv := model.Invoice{
		ID:        id,
		CompanyID: companyID,
		ClientID:  req.ClientID,
		ProjectID: req.ProjectID,
		Subtotal:  subtotal,
		TaxAmount: req.TaxAmount,
		Total:     subtotal + req.TaxAmount,
		DueDate:   req.DueDate,
	}
	stored, err := h.Invoices.UpdateDraft(ctx, inv, items)
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "only draft invoices can be edited"})
		}
		return invoiceError(c, err, "update invoice failed")
	}
	return c.JSON(http.StatusOK, stored)
}

// Delete handles DELETE /v1/invoices/:id. Only drafts can be removed.
func (h *InvoiceHandler) Delete(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Invoices.DeleteDraft(ctx, id, companyID); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "only draft invoices can be deleted"})
		}
		return invoiceError(c, err, "delete invoice failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Send handles POST /v1/invoices/:id/send: the draft becomes sent and an
// InvoiceSentEvent goes to the broker for email delivery. A publish
// failure is logged, not returned; the status transition already
// committed.
func (h *InvoiceHandler) Send(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}
	var req sendReq
	_ = c.Bind(&req)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	inv, err := h.Invoices.MarkSent(ctx, id, companyID, req.DueDate)
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "only draft invoices can be sent"})
		}
		return invoiceError(c, err, "send invoice failed")
	}

	clientEmail := ""
	if client, err := h.Clients.GetByID(ctx, inv.ClientID, companyID); err == nil {
		clientEmail = client.Email
	}
	due := ""
	if inv.DueDate != nil {
		due = inv.DueDate.Format("2006-01-02")
	}
	ev := queue.InvoiceSentEvent{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CompanyID:     inv.CompanyID,
		ClientID:      inv.ClientID,
		ClientEmail:   clientEmail,
		Total:         inv.Total,
		DueDate:       due,
		PublicURL:     h.publicURL(inv.PublicViewToken),
		SentAt:        time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue_publisher.PublishInvoiceSent(ctx, ev); err != nil {
		c.Logger().Warnf("invoice %d: publish sent event: %v", inv.ID, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InvoiceHandler) publicURL(token string) string {
	return fmt.Sprintf("%s/v1/public/invoices/%s", h.Cfg.PublicBaseURL, token)
}

// Consolidate handles POST /v1/invoices/consolidate. Eligibility rules
// live in the billing package; the repository performs the merge.
func (h *InvoiceHandler) Consolidate(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req consolidateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sources, err := h.Invoices.GetMany(ctx, req.InvoiceIDs, companyID)
	if err != nil {
		return invoiceError(c, err, "load invoices failed")
	}
	if err := billing.CheckConsolidation(sources); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	projectNames := make(map[uint64]string)
	for _, src := range sources {
		if src.ProjectID == nil {
			continue
		}
		if _, ok := projectNames[*src.ProjectID]; ok {
			continue
		}
		if p, err := h.Projects.GetByID(ctx, *src.ProjectID); err == nil {
			projectNames[p.ID] = p.Name
		}
	}

	number, err := h.Invoices.NextInvoiceNumber(ctx, companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "allocate invoice number failed"})
	}
	merged, err := h.Invoices.Consolidate(ctx, companyID, sources, number, utils.NewPublicViewToken(), projectNames)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "consolidate failed"})
	}
	return c.JSON(http.StatusCreated, merged)
}

// Print handles GET /v1/invoices/:id/print, returning a standalone HTML
// document suitable for the browser print dialog.
func (h *InvoiceHandler) Print(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	inv, err := h.Invoices.GetByID(ctx, id, companyID)
	if err != nil {
		return invoiceError(c, err, "load invoice failed")
	}
	return h.renderInvoice(c, inv)
}

// PublicView handles GET /v1/public/invoices/:token. No auth: the token is
// the capability. Each hit bumps the view counter.
func (h *InvoiceHandler) PublicView(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	inv, err := h.Invoices.GetByPublicToken(ctx, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invoice failed"})
	}
	return h.renderInvoice(c, inv)
}

func (h *InvoiceHandler) renderInvoice(c echo.Context, inv model.Invoice) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Invoices.LineItems(ctx, inv.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load line items failed"})
	}
	clientName := ""
	if client, err := h.Clients.GetByID(ctx, inv.ClientID, inv.CompanyID); err == nil {
		clientName = client.Name
	}
	due := ""
	if inv.DueDate != nil {
		due = inv.DueDate.Format("Jan 2, 2006")
	}
	page := invoicePage{
		Number:     inv.InvoiceNumber,
		Status:     inv.Status,
		ClientName: clientName,
		IssuedAt:   inv.CreatedAt.Format("Jan 2, 2006"),
		DueDate:    due,
		Subtotal:   inv.Subtotal,
		TaxAmount:  inv.TaxAmount,
		Total:      inv.Total,
		AmountDue:  inv.OpenBalance(),
		Items:      items,
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return invoiceTemplate.Execute(c.Response(), page)
}

func invoiceError(c echo.Context, err error, fallback string) error {
	switch err {
	case sql.ErrNoRows:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invoice belongs to another company"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
	}
}
