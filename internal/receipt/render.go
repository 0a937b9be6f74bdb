// Package receipt renders printable documents as a pure function of order
// data. No I/O happens here; callers hand the HTML to a print window.
package receipt

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/nattapatNtp/furniture-Frontend/internal/backend"
	"github.com/nattapatNtp/furniture-Frontend/internal/view/checkout"
)

const (
	companyName    = "Kaokai Office Furniture Co., Ltd."
	companyAddress = "123 Sukhumvit Rd, Khlong Toei, Bangkok 10110"
	companyPhone   = "02-123-4567"
	companyEmail   = "info@furniture-office.com"

	quotationValidity = 30 * 24 * time.Hour
)

// Customer is the recipient block printed on a quotation.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// QuotationNumber derives the display number for a quotation issued at t.
func QuotationNumber(t time.Time) string {
	ms := fmt.Sprintf("%d", t.UnixMilli())
	return "QT-" + ms[len(ms)-6:]
}

// RenderQuotation builds the printable quotation for the current cart.
func RenderQuotation(lines []backend.CartLine, customer Customer, issuedAt time.Time) string {
	var rows strings.Builder
	var total float64
	for i, line := range lines {
		lineTotal := line.Product.Price * float64(line.Quantity)
		total += lineTotal
		model := line.Product.Model
		if model == "" {
			model = "-"
		}
		rows.WriteString(fmt.Sprintf(
			`<tr><td>%d</td><td>%s</td><td>%s</td><td>%d</td><td>%s</td><td>%s</td></tr>`,
			i+1,
			html.EscapeString(line.Product.Name),
			html.EscapeString(model),
			line.Quantity,
			formatAmount(line.Product.Price),
			formatAmount(lineTotal),
		))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Quotation %[1]s</title></head>
<body>
	<div class="quotation-header">
		<div class="company-name">%[2]s</div>
		<div class="quotation-title">Quotation</div>
	</div>
	<div class="quotation-info">
		<div><h3>Seller</h3><p>%[3]s</p><p>Tel: %[4]s</p><p>%[5]s</p></div>
		<div><h3>Customer</h3><p>%[6]s</p><p>%[7]s</p><p>%[8]s</p><p>%[9]s</p></div>
		<div><h3>Quotation</h3><p>No. %[1]s</p><p>Date: %[10]s</p><p>Valid until: %[11]s</p></div>
	</div>
	<table>
		<thead><tr><th>#</th><th>Item</th><th>Model</th><th>Qty</th><th>Unit price</th><th>Amount</th></tr></thead>
		<tbody>%[12]s</tbody>
	</table>
	<div class="total-section">
		<div>Subtotal: %[13]s THB</div>
		<div>Shipping: Free</div>
		<div class="grand-total">Total: %[13]s THB</div>
	</div>
	<div class="terms">
		<h3>Terms</h3>
		<ul>
			<li>This quotation is valid for 30 days from the issue date.</li>
			<li>Prices include 7%% VAT.</li>
			<li>Delivery within 7-14 business days after order confirmation.</li>
			<li>Payment: 50%% on order, balance before delivery.</li>
			<li>Warranty: 1 year on factory parts.</li>
		</ul>
	</div>
</body>
</html>`,
		QuotationNumber(issuedAt),
		companyName,
		companyAddress,
		companyPhone,
		companyEmail,
		html.EscapeString(orDash(customer.Name)),
		html.EscapeString(orDash(customer.Email)),
		html.EscapeString(orDash(customer.Phone)),
		html.EscapeString(orDash(customer.Address)),
		issuedAt.Format("02/01/2006"),
		issuedAt.Add(quotationValidity).Format("02/01/2006"),
		rows.String(),
		formatAmount(total),
	)
}

// RenderReceipt builds the printable tax receipt for a completed order.
func RenderReceipt(order *checkout.OrderDraft, paymentRef string) string {
	var rows strings.Builder
	for i, line := range order.Items {
		rows.WriteString(fmt.Sprintf(
			`<tr><td>%d</td><td>%s</td><td>%s</td><td>%d</td><td>%s</td></tr>`,
			i+1,
			html.EscapeString(line.Product.Name),
			html.EscapeString(line.Product.Model),
			line.Quantity,
			formatAmount(line.Product.Price*float64(line.Quantity)),
		))
	}

	var addressBlock string
	switch {
	case order.DeliveryMethod == checkout.MethodPickup && order.PickupAddress != nil:
		addressBlock = fmt.Sprintf("<p>Pickup at: %s, %s</p>",
			html.EscapeString(order.PickupAddress.CompanyName),
			html.EscapeString(order.PickupAddress.Address))
	case order.DeliveryMethod == checkout.MethodDelivery && order.DeliveryAddress != nil:
		addressBlock = fmt.Sprintf("<p>Ship to: %s, %s %s</p>",
			html.EscapeString(order.DeliveryAddress.ContactName),
			html.EscapeString(order.DeliveryAddress.Address),
			html.EscapeString(order.DeliveryAddress.PostalCode))
	}

	var invoiceBlock string
	if order.NeedInvoice && order.InvoiceData != nil {
		invoiceBlock = fmt.Sprintf(
			`<div class="invoice"><h3>Tax invoice</h3><p>%s</p><p>%s</p><p>%s</p></div>`,
			html.EscapeString(order.InvoiceData.CompanyName),
			html.EscapeString(order.InvoiceData.Address),
			html.EscapeString(order.InvoiceData.Phone))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Receipt #%[1]s</title></head>
<body>
	<div class="receipt-header">
		<div class="company-name">%[2]s</div>
		<div class="receipt-title">Receipt</div>
	</div>
	<p>Order number: <strong>#%[1]s</strong></p>
	<p>Payment reference: %[3]s</p>
	<p>Customer: %[4]s (%[5]s)</p>
	%[6]s
	<table>
		<thead><tr><th>#</th><th>Item</th><th>Model</th><th>Qty</th><th>Amount</th></tr></thead>
		<tbody>%[7]s</tbody>
	</table>
	<div class="grand-total">Total: %[8]s THB</div>
	%[9]s
</body>
</html>`,
		html.EscapeString(order.OrderNumber),
		companyName,
		html.EscapeString(orDash(paymentRef)),
		html.EscapeString(orDash(order.CustomerName)),
		html.EscapeString(orDash(order.CustomerEmail)),
		addressBlock,
		rows.String(),
		formatAmount(order.TotalAmount),
		invoiceBlock,
	)
}

// formatAmount renders a THB amount with thousands separators, two
// decimals only when they carry information.
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	if strings.HasSuffix(s, ".00") {
		s = s[:len(s)-3]
	}
	intPart := s
	var fracPart string
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + fracPart
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
