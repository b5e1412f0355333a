package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/clients"
	"github.com/Ojay1963/Delxta/internal/domain"
)

// Materializer is the only place an Order is created from a checkout session.
// It returns the same Order for every replay of the same payment.
type Materializer struct {
	orders   domain.OrderRepository
	notifier orderNotifier
	log      *logrus.Logger
}

func NewMaterializer(orders domain.OrderRepository, notifier clients.Notifier, logger *logrus.Logger) *Materializer {
	return &Materializer{
		orders:   orders,
		notifier: orderNotifier{sink: notifier, log: logger},
		log:      logger,
	}
}

func (m *Materializer) Materialize(ctx context.Context, session *domain.CheckoutSession, outcome domain.PaymentOutcome) (*domain.Order, error) {
	reference := strings.TrimSpace(outcome.Details.PaystackReference)

	if outcome.Method == domain.PaymentPaystack && reference != "" {
		existing, err := m.orders.FindOrderByPaymentReference(ctx, reference)
		if err != nil {
			m.log.Errorf("Use Case: Lookup by payment reference %s failed: %v", reference, err)
			return nil, err
		}
		if existing != nil {
			m.log.Infof("Use Case: Payment %s already materialized as order %s", reference, existing.ID)
			return existing, nil
		}
	}

	if session.OrderID != "" {
		existing, err := m.orders.GetOrderByID(ctx, session.OrderID)
		if err == nil {
			m.log.Infof("Use Case: Checkout session %s already materialized as order %s", session.ID, existing.ID)
			return existing, nil
		}
		if domain.KindOf(err) != domain.KindOrderNotFound {
			return nil, err
		}
		m.log.Warnf("Use Case: Session %s points at missing order %s, materializing again", session.ID, session.OrderID)
	}

	details := outcome.Details
	details.PaystackReference = reference
	order := &domain.Order{
		ID:                uuid.NewString(),
		CheckoutSessionID: session.ID,
		OrderDraft:        session.OrderDraft,
		PaymentMethod:     outcome.Method,
		PaymentStatus:     outcome.Status,
		PaymentDetails:    details,
	}

	stored, created, err := m.orders.MaterializeOrder(ctx, session.ID, order)
	if err != nil {
		m.log.Errorf("Use Case: Failed to materialize order for session %s: %v", session.ID, err)
		return nil, err
	}

	session.OrderID = stored.ID
	session.Status = domain.CheckoutCompleted

	if !created {
		m.log.Infof("Use Case: Concurrent completion for session %s resolved to order %s", session.ID, stored.ID)
		return stored, nil
	}

	m.log.Infof("Use Case: Order %s materialized from session %s (%s, %s, total=%d)",
		stored.ID, session.ID, stored.PaymentMethod, stored.PaymentStatus, stored.Total)
	m.notifier.orderReceived(ctx, stored)
	return stored, nil
}
