package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ojay1963/Delxta/internal/domain"
)

const orderColumns = `id, checkout_session_id, customer_name, email, phone, items, sub_total,
	delivery_type, delivery_address, delivery_fee, total, notes, user_id, payment_method,
	payment_status, payment_details, payment_reference, order_status, created_at, updated_at`

type orderRow struct {
	ID                string         `db:"id"`
	CheckoutSessionID sql.NullString `db:"checkout_session_id"`
	CustomerName      string         `db:"customer_name"`
	Email             string         `db:"email"`
	Phone             string         `db:"phone"`
	Items             []byte         `db:"items"`
	SubTotal          int64          `db:"sub_total"`
	DeliveryType      string         `db:"delivery_type"`
	DeliveryAddress   string         `db:"delivery_address"`
	DeliveryFee       int64          `db:"delivery_fee"`
	Total             int64          `db:"total"`
	Notes             string         `db:"notes"`
	UserID            sql.NullString `db:"user_id"`
	PaymentMethod     string         `db:"payment_method"`
	PaymentStatus     string         `db:"payment_status"`
	PaymentDetails    []byte         `db:"payment_details"`
	PaymentReference  sql.NullString `db:"payment_reference"`
	OrderStatus       string         `db:"order_status"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r *orderRow) toDomain() (*domain.Order, error) {
	order := &domain.Order{
		ID:                r.ID,
		CheckoutSessionID: r.CheckoutSessionID.String,
		OrderDraft: domain.OrderDraft{
			CustomerName:    r.CustomerName,
			Email:           r.Email,
			Phone:           r.Phone,
			SubTotal:        r.SubTotal,
			DeliveryType:    domain.DeliveryType(r.DeliveryType),
			DeliveryAddress: r.DeliveryAddress,
			DeliveryFee:     r.DeliveryFee,
			Total:           r.Total,
			Notes:           r.Notes,
			UserID:          r.UserID.String,
			OrderStatus:     domain.OrderStatus(r.OrderStatus),
		},
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		PaymentStatus: domain.PaymentStatus(r.PaymentStatus),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Items, &order.Items); err != nil {
		return nil, fmt.Errorf("could not decode items of order %s: %w", r.ID, err)
	}
	if len(r.PaymentDetails) > 0 {
		if err := json.Unmarshal(r.PaymentDetails, &order.PaymentDetails); err != nil {
			return nil, fmt.Errorf("could not decode payment details of order %s: %w", r.ID, err)
		}
	}
	return order, nil
}

func ordersToDomain(rows []orderRow) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(rows))
	for i := range rows {
		order, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// orderInsertArgs follows the column order of insertOrderSQL. JSON goes over the wire as text;
// lib/pq would send a []byte as bytea.
func orderInsertArgs(order *domain.Order) ([]any, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("could not encode order items: %w", err)
	}
	details, err := json.Marshal(order.PaymentDetails)
	if err != nil {
		return nil, fmt.Errorf("could not encode payment details: %w", err)
	}
	return []any{
		order.ID,
		nullString(order.CheckoutSessionID),
		order.CustomerName,
		order.Email,
		order.Phone,
		string(items),
		order.SubTotal,
		string(order.DeliveryType),
		order.DeliveryAddress,
		order.DeliveryFee,
		order.Total,
		order.Notes,
		nullString(order.UserID),
		string(order.PaymentMethod),
		string(order.PaymentStatus),
		string(details),
		nullString(order.PaymentReference()),
		string(order.OrderStatus),
	}, nil
}

const sessionColumns = `id, email, amount_kobo, payment_method, order_draft, user_id,
	paystack_reference, status, order_id, expires_at, created_at, updated_at`

type sessionRow struct {
	ID                string         `db:"id"`
	Email             string         `db:"email"`
	AmountKobo        int64          `db:"amount_kobo"`
	PaymentMethod     string         `db:"payment_method"`
	OrderDraft        []byte         `db:"order_draft"`
	UserID            sql.NullString `db:"user_id"`
	PaystackReference sql.NullString `db:"paystack_reference"`
	Status            string         `db:"status"`
	OrderID           sql.NullString `db:"order_id"`
	ExpiresAt         time.Time      `db:"expires_at"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r *sessionRow) toDomain() (*domain.CheckoutSession, error) {
	session := &domain.CheckoutSession{
		ID:                r.ID,
		Email:             r.Email,
		AmountKobo:        r.AmountKobo,
		PaymentMethod:     domain.PaymentMethod(r.PaymentMethod),
		UserID:            r.UserID.String,
		PaystackReference: r.PaystackReference.String,
		Status:            domain.CheckoutStatus(r.Status),
		OrderID:           r.OrderID.String,
		ExpiresAt:         r.ExpiresAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if err := json.Unmarshal(r.OrderDraft, &session.OrderDraft); err != nil {
		return nil, fmt.Errorf("could not decode draft of checkout session %s: %w", r.ID, err)
	}
	return session, nil
}
