package domain

import (
	"context"
	"time"
)

type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusReadyForPickup OrderStatus = "ready_for_pickup"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
)

type DeliveryType string

const (
	DeliveryPickup DeliveryType = "pickup"
	DeliveryHome   DeliveryType = "home_delivery"
)

type PaymentMethod string

const (
	PaymentPaystack       PaymentMethod = "paystack"
	PaymentCard           PaymentMethod = "card"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// OrderLineItem snapshots the resolved serving option and price at draft time.
type OrderLineItem struct {
	MenuItemID    string `json:"menuItem"`
	Name          string `json:"name"`
	ServingOption string `json:"servingOption"`
	ServingLabel  string `json:"servingLabel"`
	UnitPrice     int64  `json:"unitPrice"`
	Quantity      int64  `json:"quantity"`
	LineTotal     int64  `json:"lineTotal"`
}

// OrderDraft is a priced order that has not been persisted yet.
type OrderDraft struct {
	CustomerName    string          `json:"customerName"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Items           []OrderLineItem `json:"items"`
	SubTotal        int64           `json:"subTotal"`
	DeliveryType    DeliveryType    `json:"deliveryType"`
	DeliveryAddress string          `json:"deliveryAddress,omitempty"`
	DeliveryFee     int64           `json:"deliveryFee"`
	Total           int64           `json:"total"`
	Notes           string          `json:"notes,omitempty"`
	UserID          string          `json:"user,omitempty"`
	OrderStatus     OrderStatus     `json:"orderStatus"`
}

type PaymentDetails struct {
	PaystackReference     string `json:"paystackReference,omitempty"`
	PaystackTransactionID int64  `json:"paystackTransactionId,omitempty"`
	PaystackChannel       string `json:"paystackChannel,omitempty"`
	CardReference         string `json:"cardReference,omitempty"`
	CardLast4             string `json:"cardLast4,omitempty"`
	CardHolderName        string `json:"cardHolderName,omitempty"`
	Expiry                string `json:"expiry,omitempty"`
}

type Order struct {
	ID                string `json:"id"`
	CheckoutSessionID string `json:"checkoutSessionId,omitempty"`
	OrderDraft
	PaymentMethod  PaymentMethod  `json:"paymentMethod"`
	PaymentStatus  PaymentStatus  `json:"paymentStatus"`
	PaymentDetails PaymentDetails `json:"paymentDetails"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// PaymentReference is the gateway dedup key, empty for non-gateway orders.
func (o *Order) PaymentReference() string {
	if o.PaymentMethod != PaymentPaystack {
		return ""
	}
	return o.PaymentDetails.PaystackReference
}

// IsOwnedBy reports whether the caller placed the order, by user id or by email.
func (o *Order) IsOwnedBy(caller *Caller) bool {
	if caller == nil {
		return false
	}
	if o.UserID != "" && o.UserID == caller.UserID {
		return true
	}
	return caller.Email != "" && equalFold(o.Email, caller.Email)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) (*Order, error)
	// MaterializeOrder inserts order for the session unless the session (or the order's payment
	// reference) already produced one; in that case the existing order is returned and created is false.
	MaterializeOrder(ctx context.Context, sessionID string, order *Order) (stored *Order, created bool, err error)
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	// FindOrderByPaymentReference returns nil, nil when no order carries the reference.
	FindOrderByPaymentReference(ctx context.Context, reference string) (*Order, error)
	ListOrdersByOwner(ctx context.Context, userID, email string, limit int) ([]Order, error)
	ListOrders(ctx context.Context, status OrderStatus, limit int) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status OrderStatus) (*Order, error)
}

var validStatuses = map[OrderStatus]struct{}{
	StatusPending:        {},
	StatusConfirmed:      {},
	StatusPreparing:      {},
	StatusOutForDelivery: {},
	StatusReadyForPickup: {},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

func IsValidStatus(status OrderStatus) bool {
	_, ok := validStatuses[status]
	return ok
}

// InitialStatus is fixed at draft time: pickup has no dispatch leg, so it skips "confirmed".
func InitialStatus(deliveryType DeliveryType) OrderStatus {
	if deliveryType == DeliveryPickup {
		return StatusReadyForPickup
	}
	return StatusConfirmed
}
