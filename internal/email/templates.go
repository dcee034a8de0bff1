package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderItem is one order line as shown in an email.
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

// BuildOrderConfirmationBody builds the HTML body for order confirmation email
func BuildOrderConfirmationBody(customer, orderID string, total decimal.Decimal, items []OrderItem) string {
	var rows strings.Builder
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		fmt.Fprintf(&rows,
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">&#8377;%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">&#8377;%s</td>
			</tr>`,
			html.EscapeString(name),
			item.Quantity,
			formatAmount(item.Price),
			formatAmount(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))),
		)
	}

	greeting := "Hello,"
	if customer != "" {
		greeting = "Hello " + html.EscapeString(customer) + ","
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #111; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Thank you for your order</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">%s</p>
		<p>We received your order and will let you know when it ships.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left;">Item</th>
					<th style="padding: 12px; text-align: center;">Qty</th>
					<th style="padding: 12px; text-align: right;">Price</th>
					<th style="padding: 12px; text-align: right;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; margin-left: 10px;">&#8377;%s</span>
		</div>
	</div>
</body>
</html>`, greeting, html.EscapeString(orderID), rows.String(), formatAmount(total))
}

// BuildStockAlertBody builds the plain text body sent to operations when a
// stock decrement failed after an order was placed.
func BuildStockAlertBody(orderID, productID string, quantity int, reason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The stock of product %s was not decremented after order %s.\n\n", productID, orderID)
	fmt.Fprintf(&b, "Quantity ordered: %d\n", quantity)
	fmt.Fprintf(&b, "Reason: %s\n\n", reason)
	b.WriteString("The order was kept. Reduce the product stock by hand once the cause is fixed.\n")
	return b.String()
}

// formatAmount renders a price with two decimals and comma separators
func formatAmount(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ",") + "." + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}
