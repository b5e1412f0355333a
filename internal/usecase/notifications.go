package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/clients"
	"github.com/Ojay1963/Delxta/internal/domain"
)

// orderNotifier wraps the sink so that delivery failures are logged and never returned.
// A nil sink disables notifications.
type orderNotifier struct {
	sink clients.Notifier
	log  *logrus.Logger
}

func (n orderNotifier) orderReceived(ctx context.Context, order *domain.Order) {
	n.send(ctx, clients.Notification{
		To:      order.Email,
		Subject: fmt.Sprintf("We received your order #%s", shortID(order.ID)),
		Body: fmt.Sprintf("Hi %s, your order totalling NGN %d (%s, %s) has been received. Payment: %s.",
			order.CustomerName, order.Total, order.DeliveryType, order.OrderStatus, order.PaymentStatus),
		Kind:    clients.NotificationOrderReceived,
		OrderID: order.ID,
	})
}

func (n orderNotifier) statusChanged(ctx context.Context, order *domain.Order) {
	n.send(ctx, clients.Notification{
		To:      order.Email,
		Subject: fmt.Sprintf("Order #%s is now %s", shortID(order.ID), order.OrderStatus),
		Body:    fmt.Sprintf("Hi %s, your order status was updated to %s.", order.CustomerName, order.OrderStatus),
		Kind:    clients.NotificationStatusChanged,
		OrderID: order.ID,
	})
}

func (n orderNotifier) send(ctx context.Context, msg clients.Notification) {
	if n.sink == nil || msg.To == "" {
		return
	}
	if err := n.sink.Notify(ctx, msg); err != nil {
		n.log.Warnf("Use Case: Notification %s for order %s not delivered: %v", msg.Kind, msg.OrderID, err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
