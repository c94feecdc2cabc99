package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/scentlane/storefront-backend/pkg/config"
	"github.com/scentlane/storefront-backend/pkg/db/models"
)

// OrderMailer notifies people that an order was placed. Sending is
// best-effort: a failed email never fails the order.
type OrderMailer interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends plain-text order notifications over SMTP. When the SMTP
// config is incomplete it becomes a no-op, so local setups work without a
// mail server.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	send sendFunc
}

// NewSMTPMailer builds a mailer from the SMTP config.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// SendOrderConfirmation emails the customer and, when configured, the orders
// inbox.
func (m *SMTPMailer) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if !m.cfg.Enabled() {
		return nil
	}

	recipients := []string{order.CustomerEmail}
	if to := strings.TrimSpace(m.cfg.OrdersTo); to != "" {
		recipients = append(recipients, to)
	}

	msg := m.buildMessage(order, recipients)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)

	if err := m.send(addr, auth, m.cfg.From, recipients, msg); err != nil {
		return fmt.Errorf("sending order confirmation for %s: %w", order.OrderNumber, err)
	}
	return nil
}

func (m *SMTPMailer) buildMessage(order *models.Order, recipients []string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&b, "Subject: Order confirmation %s\r\n", order.OrderNumber)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	fmt.Fprintf(&b, "Thank you for your order, %s!\r\n\r\n", order.CustomerName)
	fmt.Fprintf(&b, "Order number: %s\r\n\r\n", order.OrderNumber)
	for _, item := range order.Items {
		line := fmt.Sprintf("  %dx %s", item.Quantity, item.Name)
		if item.Size != "" {
			line += " (" + item.Size
			if item.Color != "" {
				line += ", " + item.Color
			}
			line += ")"
		} else if item.Color != "" {
			line += " (" + item.Color + ")"
		}
		fmt.Fprintf(&b, "%s - %s\r\n", line, item.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\r\nSubtotal: %s\r\n", order.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Tax: %s\r\n", order.Tax.StringFixed(2))
	fmt.Fprintf(&b, "Shipping: %s\r\n", order.Shipping.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s\r\n\r\n", order.Total.StringFixed(2))
	fmt.Fprintf(&b, "Shipping to: %s, %s, %s %s\r\n",
		order.ShippingAddress.Address, order.ShippingAddress.City,
		order.ShippingAddress.State, order.ShippingAddress.Zip)

	return []byte(b.String())
}
