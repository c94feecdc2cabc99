package notifications

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/scentlane/storefront-backend/pkg/config"
	"github.com/scentlane/storefront-backend/pkg/db/models"
	"github.com/scentlane/storefront-backend/pkg/types"
)

func orderFixture() *models.Order {
	return &models.Order{
		OrderNumber:   "ORD-1723400000000-AB12",
		CustomerEmail: "ayesha@example.com",
		CustomerName:  "Ayesha Khan",
		ShippingAddress: types.ShippingAddress{
			Address: "12 Mall Road",
			City:    "Lahore",
			State:   "Punjab",
			Zip:     "54000",
		},
		Items: types.OrderItems{
			{ProductID: "p1", Name: "Rose Attar", Price: decimal.RequireFromString("2500"), Quantity: 2, Size: "50ml"},
		},
		Subtotal: decimal.RequireFromString("5000"),
		Tax:      decimal.RequireFromString("650"),
		Shipping: decimal.RequireFromString("500"),
		Total:    decimal.RequireFromString("6150"),
	}
}

func TestSendOrderConfirmation(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	mailer := NewSMTPMailer(config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		User:     "mailer",
		Password: "secret",
		From:     "orders@scentlane.example",
		OrdersTo: "fulfillment@scentlane.example",
	})
	mailer.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := mailer.SendOrderConfirmation(context.Background(), orderFixture()); err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Fatalf("addr = %s", gotAddr)
	}
	if gotFrom != "orders@scentlane.example" {
		t.Fatalf("from = %s", gotFrom)
	}
	if len(gotTo) != 2 || gotTo[0] != "ayesha@example.com" || gotTo[1] != "fulfillment@scentlane.example" {
		t.Fatalf("to = %v", gotTo)
	}

	body := string(gotMsg)
	for _, want := range []string{
		"Subject: Order confirmation ORD-1723400000000-AB12",
		"2x Rose Attar (50ml) - 2500.00",
		"Total: 6150.00",
		"Lahore, Punjab 54000",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("message missing %q:\n%s", want, body)
		}
	}
}

func TestSendOrderConfirmationDisabled(t *testing.T) {
	mailer := NewSMTPMailer(config.SMTPConfig{})
	mailer.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatalf("disabled mailer must not send")
		return nil
	}

	if err := mailer.SendOrderConfirmation(context.Background(), orderFixture()); err != nil {
		t.Fatalf("disabled mailer should no-op, got %v", err)
	}
}

func TestSendOrderConfirmationFailure(t *testing.T) {
	mailer := NewSMTPMailer(config.SMTPConfig{
		Host:     "smtp.example.com",
		From:     "orders@scentlane.example",
		OrdersTo: "fulfillment@scentlane.example",
	})
	mailer.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := mailer.SendOrderConfirmation(context.Background(), orderFixture())
	if err == nil || !strings.Contains(err.Error(), "ORD-1723400000000-AB12") {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}
