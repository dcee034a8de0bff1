package email

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"999.5", "999.50"},
		{"1000", "1,000.00"},
		{"1234567.891", "1,234,567.89"},
		{"-2500", "-2,500.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAmount(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestBuildOrderConfirmationBody(t *testing.T) {
	body := BuildOrderConfirmationBody("Ada <3", "order-123", decimal.NewFromInt(250), []OrderItem{
		{ProductID: "A", Name: "Lamp", Quantity: 2, Price: decimal.NewFromInt(100)},
		{ProductID: "B", Quantity: 1, Price: decimal.NewFromInt(50)},
	})

	assert.Contains(t, body, "Hello Ada &lt;3,")
	assert.Contains(t, body, "order-123")
	assert.Contains(t, body, "Lamp")
	assert.Contains(t, body, ">B<")
	assert.Contains(t, body, "&#8377;200.00")
	assert.Contains(t, body, "&#8377;250.00")
}

func TestService_SendStockAlert(t *testing.T) {
	s := NewService("mail", "1025", "noreply@example.com")
	var addr string
	var to []string
	var msg []byte
	s.send = func(a, _ string, rcpt []string, m []byte) error {
		addr, to, msg = a, rcpt, m
		return nil
	}

	require.NoError(t, s.SendStockAlert("ops@example.com", "0123456789abcdef", "A", 2, "timeout"))

	assert.Equal(t, "mail:1025", addr)
	assert.Equal(t, []string{"ops@example.com"}, to)
	text := string(msg)
	assert.Contains(t, text, "Subject: Stock reconciliation needed: product A (order 01234567)")
	assert.Contains(t, text, "Content-Type: text/plain")
	assert.True(t, strings.HasSuffix(text, "Reduce the product stock by hand once the cause is fixed.\n"))
}
