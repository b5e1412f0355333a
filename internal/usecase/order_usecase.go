package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/clients"
	"github.com/Ojay1963/Delxta/internal/domain"
)

type OrderUseCase interface {
	CreateCashOrder(ctx context.Context, input domain.OrderDraftInput, caller *domain.Caller) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id string, caller *domain.Caller) (*domain.Order, error)
	ListMyOrders(ctx context.Context, caller *domain.Caller) ([]domain.Order, error)
	ListAdminOrders(ctx context.Context, status string, caller *domain.Caller) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, caller *domain.Caller) (*domain.Order, error)
}

var _ OrderUseCase = (*orderUseCase)(nil)

type orderUseCase struct {
	drafts    *DraftBuilder
	orderRepo domain.OrderRepository
	notifier  orderNotifier
	log       *logrus.Logger
}

func NewOrderUseCase(drafts *DraftBuilder, repo domain.OrderRepository, notifier clients.Notifier, logger *logrus.Logger) OrderUseCase {
	return &orderUseCase{
		drafts:    drafts,
		orderRepo: repo,
		notifier:  orderNotifier{sink: notifier, log: logger},
		log:       logger,
	}
}

// CreateCashOrder persists the order directly with payment pending: no money moves through us.
func (uc *orderUseCase) CreateCashOrder(ctx context.Context, input domain.OrderDraftInput, caller *domain.Caller) (*domain.Order, error) {
	draft, err := uc.drafts.BuildOrderDraft(ctx, input, caller.ID())
	if err != nil {
		uc.log.Warnf("Use Case: Cash order draft rejected: %v", err)
		return nil, err
	}

	order := &domain.Order{
		ID:            uuid.NewString(),
		OrderDraft:    *draft,
		PaymentMethod: domain.PaymentCashOnDelivery,
		PaymentStatus: domain.PaymentPending,
	}

	created, err := uc.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to create cash order for %s: %v", draft.Email, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Cash order %s created for %s (total=%d, status=%s)", created.ID, created.Email, created.Total, created.OrderStatus)
	uc.notifier.orderReceived(ctx, created)
	return created, nil
}

func (uc *orderUseCase) GetOrderByID(ctx context.Context, id string, caller *domain.Caller) (*domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrOrderNotFound
	}
	order, err := uc.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !order.IsOwnedBy(caller) {
		uc.log.Warnf("Use Case: Caller %q denied access to order %s", caller.ID(), id)
		return nil, domain.NewForbiddenError("Not allowed to view this order.")
	}
	return order, nil
}

func (uc *orderUseCase) ListMyOrders(ctx context.Context, caller *domain.Caller) ([]domain.Order, error) {
	if caller == nil {
		return nil, domain.NewForbiddenError("Authentication required.")
	}
	orders, err := uc.orderRepo.ListOrdersByOwner(ctx, caller.UserID, caller.Email, myOrdersLimit)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to list orders for %s: %v", caller.UserID, err)
		return nil, err
	}
	return orders, nil
}

func (uc *orderUseCase) ListAdminOrders(ctx context.Context, status string, caller *domain.Caller) ([]domain.Order, error) {
	if !caller.IsAdmin() {
		return nil, domain.NewForbiddenError("Admin access required.")
	}
	filter := domain.OrderStatus(strings.TrimSpace(status))
	if filter != "" && !domain.IsValidStatus(filter) {
		return nil, domain.ErrInvalidStatus
	}
	orders, err := uc.orderRepo.ListOrders(ctx, filter, adminOrdersLimit)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to list admin orders (status=%q): %v", filter, err)
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus lets an admin move an order to any allowed status; there is no adjacency rule.
func (uc *orderUseCase) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, caller *domain.Caller) (*domain.Order, error) {
	if !caller.IsAdmin() {
		return nil, domain.NewForbiddenError("Admin access required.")
	}
	if !domain.IsValidStatus(status) {
		uc.log.Warnf("Use Case: Rejected invalid status %q for order %s", status, id)
		return nil, domain.ErrInvalidStatus
	}

	order, err := uc.orderRepo.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to update order %s to %s: %v", id, status, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Order %s marked as %s by %s", order.ID, order.OrderStatus, caller.ID())
	uc.notifier.statusChanged(ctx, order)
	return order, nil
}
