package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/activity"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/email"
)

type sentConfirmation struct {
	to, customer, orderID string
	total                 decimal.Decimal
	items                 []email.OrderItem
}

type mockMailer struct {
	confirmations []sentConfirmation
	alerts        []string
	err           error
}

func (m *mockMailer) SendOrderConfirmation(to, customer, orderID string, total decimal.Decimal, items []email.OrderItem) error {
	if m.err != nil {
		return m.err
	}
	m.confirmations = append(m.confirmations, sentConfirmation{to, customer, orderID, total, items})
	return nil
}

func (m *mockMailer) SendStockAlert(to, orderID, productID string, quantity int, reason string) error {
	if m.err != nil {
		return m.err
	}
	m.alerts = append(m.alerts, to+"|"+orderID+"|"+productID)
	return nil
}

func encode(t *testing.T, eventType, key string, data any) []byte {
	t.Helper()
	event, err := activity.NewEvent(eventType, key, data)
	require.NoError(t, err)
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return raw
}

func newTestHandler(mailer *mockMailer, alertTo string) (*Handler, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewHandler(mailer, alertTo, log.New(&buf, "", 0)), &buf
}

func TestHandleEvent_OrderPlacedSendsConfirmation(t *testing.T) {
	mailer := &mockMailer{}
	h, _ := newTestHandler(mailer, "")

	raw := encode(t, activity.TypeOrderPlaced, "o1", activity.OrderPlaced{
		OrderID: "o1",
		UserID:  "u1",
		Email:   "ada@example.com",
		Name:    "Ada",
		Items:   []order.LineItem{{ProductID: "A", Name: "Lamp", Quantity: 2, Price: decimal.NewFromInt(100)}},
		Total:   decimal.NewFromInt(200),
	})

	require.NoError(t, h.HandleEvent(context.Background(), []byte("o1"), raw))

	require.Len(t, mailer.confirmations, 1)
	sent := mailer.confirmations[0]
	assert.Equal(t, "ada@example.com", sent.to)
	assert.Equal(t, "Ada", sent.customer)
	assert.True(t, sent.total.Equal(decimal.NewFromInt(200)))
	require.Len(t, sent.items, 1)
	assert.Equal(t, "Lamp", sent.items[0].Name)
}

func TestHandleEvent_OrderPlacedWithoutEmailSkipped(t *testing.T) {
	mailer := &mockMailer{}
	h, buf := newTestHandler(mailer, "")

	raw := encode(t, activity.TypeOrderPlaced, "o1", activity.OrderPlaced{OrderID: "o1"})

	require.NoError(t, h.HandleEvent(context.Background(), nil, raw))
	assert.Empty(t, mailer.confirmations)
	assert.Contains(t, buf.String(), "No email address on order o1")
}

func TestHandleEvent_StockDecrementFailedTrackedAndAlerted(t *testing.T) {
	mailer := &mockMailer{}
	h, buf := newTestHandler(mailer, "ops@example.com")

	raw := encode(t, activity.TypeStockDecrementFailed, "o1", activity.StockDecrementFailed{
		OrderID: "o1", ProductID: "A", Quantity: 2, Reason: "503",
	})

	require.NoError(t, h.HandleEvent(context.Background(), nil, raw))

	assert.Equal(t, []string{"ops@example.com|o1|A"}, mailer.alerts)
	unreconciled := h.Unreconciled()
	require.Len(t, unreconciled["o1"], 1)
	assert.Equal(t, 2, unreconciled["o1"][0].Quantity)
	assert.Contains(t, buf.String(), "Stock not decremented: product A")
}

func TestHandleEvent_StockAlertWithoutRecipientOnlyLogs(t *testing.T) {
	mailer := &mockMailer{}
	h, _ := newTestHandler(mailer, "")

	raw := encode(t, activity.TypeStockDecrementFailed, "o1", activity.StockDecrementFailed{OrderID: "o1", ProductID: "A"})

	require.NoError(t, h.HandleEvent(context.Background(), nil, raw))
	assert.Empty(t, mailer.alerts)
	assert.Len(t, h.Unreconciled()["o1"], 1)
}

func TestHandleEvent_MailerFailure(t *testing.T) {
	mailer := &mockMailer{err: errors.New("smtp down")}
	h, _ := newTestHandler(mailer, "")

	raw := encode(t, activity.TypeOrderPlaced, "o1", activity.OrderPlaced{OrderID: "o1", Email: "a@b.co"})

	assert.Error(t, h.HandleEvent(context.Background(), nil, raw))
}

func TestHandleEvent_IgnoresOtherEvents(t *testing.T) {
	mailer := &mockMailer{}
	h, _ := newTestHandler(mailer, "ops@example.com")

	raw := encode(t, activity.TypeStockDecremented, "o1", activity.StockDecremented{OrderID: "o1"})

	require.NoError(t, h.HandleEvent(context.Background(), nil, raw))
	assert.Empty(t, mailer.alerts)
	assert.Empty(t, mailer.confirmations)
}

func TestHandleEvent_BadPayload(t *testing.T) {
	h, _ := newTestHandler(&mockMailer{}, "")

	assert.Error(t, h.HandleEvent(context.Background(), nil, []byte("{not json")))
}
