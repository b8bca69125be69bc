package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"invoicehub-backend/internal/billing"
	"invoicehub-backend/internal/model"
	"invoicehub-backend/internal/repository"
	"invoicehub-backend/internal/utils"
)

// ReportHandler aggregates invoices into the AR aging and revenue views.
type ReportHandler struct {
	Invoices *repository.InvoiceRepo
}

func NewReportHandler(i *repository.InvoiceRepo) *ReportHandler {
	return &ReportHandler{Invoices: i}
}

// ARAging handles GET /v1/reports/ar-aging. Sent invoices past their due
// date are flipped to overdue first so the buckets always reflect today.
// export=csv downloads the table.
func (h *ReportHandler) ARAging(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	if err := h.Invoices.RefreshOverdue(ctx, companyID, now); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh overdue failed"})
	}
	invoices, err := h.Invoices.ListByCompany(ctx, companyID, "", nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invoices failed"})
	}
	buckets := billing.AgingBuckets(invoices, now)

	if c.QueryParam("export") == "csv" {
		header := []string{"bucket", "count", "total"}
		rows := make([][]string, 0, len(buckets))
		for _, b := range buckets {
			rows = append(rows, []string{b.Label, strconv.Itoa(b.Count), fmt.Sprintf("%.2f", b.Total)})
		}
		data, err := utils.BuildCSV(header, rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "build csv failed"})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=%q", utils.CSVFilename("ar-aging", now)))
		return c.Blob(http.StatusOK, "text/csv", data)
	}

	return c.JSON(http.StatusOK, echo.Map{"as_of": now.Format("2006-01-02"), "buckets": buckets})
}

// Revenue handles GET /v1/reports/revenue: invoiced, collected and
// outstanding totals plus a per-status breakdown. Consolidated sources are
// excluded so their totals are not counted twice.
func (h *ReportHandler) Revenue(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	invoices, err := h.Invoices.ListByCompany(ctx, companyID, "", nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invoices failed"})
	}

	type statusLine struct {
		Count int     `json:"count"`
		Total float64 `json:"total"`
	}
	byStatus := map[string]*statusLine{}
	var invoiced, collected, outstanding float64
	for _, inv := range invoices {
		line := byStatus[inv.Status]
		if line == nil {
			line = &statusLine{}
			byStatus[inv.Status] = line
		}
		line.Count++
		line.Total += inv.Total
		if inv.Status == model.InvoiceConsolidated {
			continue
		}
		if inv.Status != model.InvoiceDraft {
			invoiced += inv.Total
			collected += inv.AmountPaid
			outstanding += inv.OpenBalance()
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"invoiced":    invoiced,
		"collected":   collected,
		"outstanding": outstanding,
		"by_status":   byStatus,
	})
}
