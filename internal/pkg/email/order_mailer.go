package email

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/domain/order"
	"github.com/sirupsen/logrus"
)

const sendTimeout = 30 * time.Second

// OrderMailer turns order events into customer notifications. Delivery runs
// in the background so checkout latency does not depend on the mail relay.
type OrderMailer struct {
	emails *EmailService
	log    logrus.FieldLogger
	wg     sync.WaitGroup
}

// NewOrderMailer creates an order event listener
func NewOrderMailer(emails *EmailService, log logrus.FieldLogger) *OrderMailer {
	return &OrderMailer{emails: emails, log: log.WithField("component", "order_mailer")}
}

func (m *OrderMailer) HandleOrderEvent(ctx context.Context, event order.Event) {
	if event.Order == nil {
		return
	}

	var send func(context.Context) error
	switch event.Type {
	case order.EventCreated:
		data, ok := m.confirmation(event)
		if !ok {
			return
		}
		send = func(ctx context.Context) error { return m.emails.SendOrderConfirmationEmail(ctx, data) }
	case order.EventStatusChanged, order.EventCanceled:
		data, ok := m.statusUpdate(event)
		if !ok {
			return
		}
		send = func(ctx context.Context) error { return m.emails.SendOrderStatusUpdateEmail(ctx, data) }
	default:
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			m.log.WithError(err).WithField("order_id", event.OrderID).Error("failed to send order email")
		}
	}()
}

// Wait blocks until queued emails have been handed to the sender
func (m *OrderMailer) Wait() {
	m.wg.Wait()
}

func (m *OrderMailer) confirmation(event order.Event) (OrderConfirmationData, bool) {
	o := event.Order
	name, address := recipient(event)
	if address == "" {
		return OrderConfirmationData{}, false
	}

	items := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItem{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Price:    item.UnitPrice.StringFixed(2),
			Total:    item.LineTotal.StringFixed(2),
		})
	}

	data := OrderConfirmationData{
		EmailTemplateData: EmailTemplateData{UserName: name, UserEmail: address},
		OrderNumber:       o.OrderNumber,
		OrderDate:         o.CreatedAt.Format("January 2, 2006"),
		OrderTotal:        o.TotalPrice.StringFixed(2),
		Address:           o.Address,
		Items:             items,
		GuestToken:        event.GuestToken,
	}
	if event.GuestToken != "" && m.emails.config.Email.SiteURL != "" {
		data.TrackURL = fmt.Sprintf("%s/orders/guest/%s", m.emails.config.Email.SiteURL, event.GuestToken)
	}
	return data, true
}

func (m *OrderMailer) statusUpdate(event order.Event) (OrderStatusUpdateData, bool) {
	name, address := recipient(event)
	if address == "" {
		return OrderStatusUpdateData{}, false
	}
	return OrderStatusUpdateData{
		EmailTemplateData: EmailTemplateData{UserName: name, UserEmail: address},
		OrderNumber:       event.Order.OrderNumber,
		Status:            string(event.Status),
		StatusMessage:     statusMessages[event.Status],
	}, true
}

var statusMessages = map[order.Status]string{
	order.StatusShipped:   "Your order is on its way.",
	order.StatusDelivered: "Your order has been delivered. Enjoy!",
	order.StatusCanceled:  "Your order has been canceled.",
}

func recipient(event order.Event) (name, address string) {
	if event.Order.Customer != nil {
		name, address = event.Order.Customer.Name, event.Order.Customer.Email
	}
	if event.Email != "" {
		address = event.Email
	}
	return name, address
}
