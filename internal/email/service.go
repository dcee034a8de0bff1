package email

import (
	"fmt"
	"net/smtp"

	"github.com/shopspring/decimal"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
	send func(addr string, from string, to []string, msg []byte) error
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to, customer, orderID string, total decimal.Decimal, items []OrderItem) error {
	subject := fmt.Sprintf("Order confirmation (order %s)", shortID(orderID))
	body := BuildOrderConfirmationBody(customer, orderID, total, items)
	return s.deliver(to, subject, "text/html", body)
}

// SendStockAlert tells operations that an order line still needs its
// stock reduced.
func (s *Service) SendStockAlert(to, orderID, productID string, quantity int, reason string) error {
	subject := fmt.Sprintf("Stock reconciliation needed: product %s (order %s)", productID, shortID(orderID))
	body := BuildStockAlertBody(orderID, productID, quantity, reason)
	return s.deliver(to, subject, "text/plain", body)
}

func (s *Service) deliver(to, subject, contentType, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: %s; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, contentType, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.send(addr, s.from, []string{to}, []byte(msg))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
