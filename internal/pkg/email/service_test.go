package email

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/domain/order"
	"github.com/MuhammadAwais984/storefront/internal/domain/user"
	"github.com/MuhammadAwais984/storefront/internal/pkg/logger"
	"github.com/MuhammadAwais984/storefront/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu   sync.Mutex
	sent []*Email
	err  error
}

func (c *captureSender) Send(_ context.Context, email *Email) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, email)
	return c.err
}

func guestOrder() *order.Order {
	return &order.Order{
		ID:          7,
		OrderNumber: "ORD-20240101-00007",
		Address:     "Guest Lane 1",
		TotalPrice:  decimal.RequireFromString("1300"),
		Status:      order.StatusPending,
		CreatedAt:   time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Items: []order.OrderItem{{
			ProductName: "Laptop <Pro>",
			UnitPrice:   decimal.NewFromInt(500),
			Quantity:    2,
			LineTotal:   decimal.NewFromInt(1000),
		}},
		Customer: &user.User{Name: "Guest", Email: "guest@example.com"},
	}
}

func TestOrderMailerSendsGuestConfirmation(t *testing.T) {
	sender := &captureSender{}
	svc, err := NewEmailServiceWithSender(testutil.Config(t), sender, logger.Discard())
	require.NoError(t, err)
	mailer := NewOrderMailer(svc, logger.Discard())

	mailer.HandleOrderEvent(context.Background(), order.Event{
		Type:       order.EventCreated,
		OrderID:    7,
		Order:      guestOrder(),
		GuestToken: "tok-123",
		Email:      "guest@example.com",
	})
	mailer.Wait()

	require.Len(t, sender.sent, 1)
	sent := sender.sent[0]
	assert.Equal(t, []string{"guest@example.com"}, sent.To)
	assert.Equal(t, "Order Confirmation - ORD-20240101-00007", sent.Subject)
	assert.Contains(t, sent.HTMLContent, "tok-123")
	assert.Contains(t, sent.HTMLContent, "1300.00")
	assert.Contains(t, sent.HTMLContent, "Laptop &lt;Pro&gt;")
}

func TestOrderMailerStatusUpdate(t *testing.T) {
	sender := &captureSender{}
	svc, err := NewEmailServiceWithSender(testutil.Config(t), sender, logger.Discard())
	require.NoError(t, err)
	mailer := NewOrderMailer(svc, logger.Discard())

	o := guestOrder()
	o.Status = order.StatusShipped
	mailer.HandleOrderEvent(context.Background(), order.Event{Type: order.EventStatusChanged, OrderID: o.ID, Status: o.Status, Order: o})
	mailer.HandleOrderEvent(context.Background(), order.Event{Type: order.EventDeleted, OrderID: o.ID})
	mailer.Wait()

	require.Len(t, sender.sent, 1)
	assert.Equal(t, EmailTypeOrderStatusUpdate, sender.sent[0].Type)
	assert.Contains(t, sender.sent[0].HTMLContent, "on its way")
}

func TestOrderMailerLogsFailures(t *testing.T) {
	sender := &captureSender{err: errors.New("relay down")}
	log, hook := test.NewNullLogger()
	svc, err := NewEmailServiceWithSender(testutil.Config(t), sender, log)
	require.NoError(t, err)
	mailer := NewOrderMailer(svc, log)

	mailer.HandleOrderEvent(context.Background(), order.Event{Type: order.EventCreated, OrderID: 7, Order: guestOrder()})
	mailer.Wait()

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestNewEmailServiceProviders(t *testing.T) {
	cfg := testutil.Config(t)
	svc, err := NewEmailService(cfg, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, svc.sender)

	cfg.Email.Provider = "smtp"
	cfg.Email.SMTPHost = "smtp.example.com"
	svc, err = NewEmailService(cfg, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, svc.sender)

	cfg.Email.Provider = "carrier-pigeon"
	_, err = NewEmailService(cfg, logger.Discard())
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("Shop <orders@shop.test>", &Email{
		To:          []string{"a@example.com", "b@example.com"},
		Subject:     "Hi",
		HTMLContent: "<p>body</p>",
	}))
	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hi\r\n")
	assert.True(t, len(msg) > 0 && msg[len(msg)-len("<p>body</p>"):] == "<p>body</p>")
}
