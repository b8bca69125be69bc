package handler

import (
	"html/template"

	"invoicehub-backend/internal/model"
)

// invoicePage is the data fed to the printable invoice document.
type invoicePage struct {
	Number     string
	Status     string
	ClientName string
	IssuedAt   string
	DueDate    string
	Subtotal   float64
	TaxAmount  float64
	Total      float64
	AmountDue  float64
	Items      []model.InvoiceLineItem
}

// Standalone document: no external assets so the browser print dialog and
// "save as PDF" work offline.
var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Invoice {{.Number}}</title>
<style>
  body { font-family: Georgia, serif; color: #1a1a1a; margin: 40px auto; max-width: 700px; }
  h1 { font-size: 28px; margin-bottom: 0; }
  .meta { color: #555; margin-bottom: 32px; }
  .status { text-transform: uppercase; letter-spacing: 1px; font-size: 12px; }
  table { width: 100%; border-collapse: collapse; margin: 24px 0; }
  th { text-align: left; border-bottom: 2px solid #1a1a1a; padding: 8px 4px; }
  td { border-bottom: 1px solid #ddd; padding: 8px 4px; }
  td.num, th.num { text-align: right; }
  .totals td { border: none; padding: 4px; }
  .totals .label { text-align: right; color: #555; }
  .totals .grand { font-weight: bold; border-top: 2px solid #1a1a1a; }
  @media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>Invoice {{.Number}}</h1>
<p class="meta">
  <span class="status">{{.Status}}</span><br>
  Billed to: {{.ClientName}}<br>
  Issued: {{.IssuedAt}}{{if .DueDate}} &middot; Due: {{.DueDate}}{{end}}
</p>
<table>
<thead>
<tr><th>Description</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Amount</th></tr>
</thead>
<tbody>
{{range .Items}}<tr>
  <td>{{.Description}}</td>
  <td class="num">{{printf "%.2f" .Quantity}}</td>
  <td class="num">{{printf "%.2f" .UnitPrice}}</td>
  <td class="num">{{printf "%.2f" .Amount}}</td>
</tr>
{{end}}</tbody>
</table>
<table class="totals">
<tr><td class="label">Subtotal</td><td class="num">{{printf "%.2f" .Subtotal}}</td></tr>
<tr><td class="label">Tax</td><td class="num">{{printf "%.2f" .TaxAmount}}</td></tr>
<tr><td class="label grand">Total</td><td class="num grand">{{printf "%.2f" .Total}}</td></tr>
<tr><td class="label">Amount due</td><td class="num">{{printf "%.2f" .AmountDue}}</td></tr>
</table>
</body>
</html>
`))
