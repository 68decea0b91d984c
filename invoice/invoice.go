package invoice

import (
	"bytes"
	"html/template"
	"strconv"
)

// Invoice 发票视图数据，全部来自查询参数
type Invoice struct {
	Order    string
	Name     string
	Address  string
	Phone    string
	Date     string
	Discount float64
	Credits  float64
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Arial, sans-serif; margin: 40px; color: #222; }
  h1 { color: #2e7d32; }
  table { width: 100%; border-collapse: collapse; margin-top: 24px; }
  td { padding: 8px 4px; border-bottom: 1px solid #e0e0e0; }
  .label { color: #777; width: 180px; }
  .totals td { border-bottom: none; font-weight: bold; }
</style>
</head>
<body>
  <h1>FreshCart</h1>
  <p>Invoice for order <strong>{{.Order}}</strong></p>
  <table>
    <tr><td class="label">Customer</td><td>{{.Name}}</td></tr>
    <tr><td class="label">Delivery address</td><td>{{.Address}}</td></tr>
    <tr><td class="label">Phone</td><td>{{.Phone}}</td></tr>
    <tr><td class="label">Date</td><td>{{.Date}}</td></tr>
    {{if .Discount}}<tr class="totals"><td class="label">Discount</td><td>-{{printf "%.2f" .Discount}}</td></tr>{{end}}
    {{if .Credits}}<tr class="totals"><td class="label">Credits applied</td><td>-{{printf "%.2f" .Credits}}</td></tr>{{end}}
  </table>
</body>
</html>`

var tmpl = template.Must(template.New("invoice").Parse(invoiceTemplate))

// HTML renders the invoice page handed to the PDF engine.
func (inv *Invoice) HTML() (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, inv); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FromQuery builds an invoice from the generate-pdf query parameters.
// Numeric parse failures degrade to zero; the invoice still renders.
func FromQuery(order, name, address, phone, date, discount, credits string) *Invoice {
	inv := &Invoice{
		Order:   order,
		Name:    name,
		Address: address,
		Phone:   phone,
		Date:    date,
	}
	if v, err := strconv.ParseFloat(discount, 64); err == nil {
		inv.Discount = v
	}
	if v, err := strconv.ParseFloat(credits, 64); err == nil {
		inv.Credits = v
	}
	return inv
}
