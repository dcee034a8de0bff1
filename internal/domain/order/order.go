package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusShipped, StatusDelivered, StatusCancelled}

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrder    = errors.New("order must have at least one item")
	ErrInvalidStatus = errors.New("invalid order status")
)

// ParseStatus accepts a status in any letter case.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCOD  PaymentMethod = "cod"
)

// LineItem is an immutable purchased line, priced at purchase time.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Total sums the subtotals of items.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

type CustomerInfo struct {
	Name          string        `json:"name" validate:"required"`
	Email         string        `json:"email" validate:"required,email"`
	Address       string        `json:"address" validate:"required"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required,oneof=card cod"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate trims the fields and checks that the order can ship. The error
// message is meant for the buyer.
func (c *CustomerInfo) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Address = strings.TrimSpace(c.Address)
	if c.PaymentMethod == "" {
		c.PaymentMethod = PaymentCard
	}

	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return &InvalidCustomerError{Field: verrs[0].Field(), Message: customerMessage(verrs[0])}
}

func customerMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Name":
		return "Name is required."
	case "Email":
		if fe.Tag() == "email" {
			return "Please enter a valid email address."
		}
		return "Email is required."
	case "Address":
		return "Address is required to place an order."
	case "PaymentMethod":
		return "Payment method must be card or cod."
	}
	return fe.Error()
}

type InvalidCustomerError struct {
	Field   string
	Message string
}

func (e *InvalidCustomerError) Error() string { return e.Message }

type Order struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Customer       CustomerInfo    `json:"customer_info"`
	Items          []LineItem      `json:"items"`
	Total          decimal.Decimal `json:"total"`
	OrderDate      time.Time       `json:"order_date"`
	Status         Status          `json:"status"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

func (o Order) Key() string { return o.ID }

// Units is the number of units across all lines.
func (o Order) Units() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
