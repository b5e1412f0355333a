package domain

import (
	"context"
	"time"
)

type CheckoutStatus string

const (
	CheckoutPending          CheckoutStatus = "pending"
	CheckoutPaymentInitiated CheckoutStatus = "payment_initiated"
	CheckoutPaid             CheckoutStatus = "paid"
	CheckoutCompleted        CheckoutStatus = "completed"
	CheckoutFailed           CheckoutStatus = "failed"
	CheckoutExpired          CheckoutStatus = "expired"
)

// CheckoutSession freezes a priced draft and its minor-unit amount before any money moves.
type CheckoutSession struct {
	ID                string         `json:"id"`
	Email             string         `json:"email"`
	AmountKobo        int64          `json:"amountKobo"`
	PaymentMethod     PaymentMethod  `json:"paymentMethod"`
	OrderDraft        OrderDraft     `json:"orderDraft"`
	UserID            string         `json:"user,omitempty"`
	PaystackReference string         `json:"paystackReference,omitempty"`
	Status            CheckoutStatus `json:"status"`
	OrderID           string         `json:"order,omitempty"`
	ExpiresAt         time.Time      `json:"expiresAt"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// IsExpired treats the expiry instant itself as expired, whether or not the row was purged.
func (s *CheckoutSession) IsExpired(now time.Time) bool {
	return s.Status == CheckoutExpired || !now.Before(s.ExpiresAt)
}

func (s *CheckoutSession) IsOwnedBy(caller *Caller) bool {
	return caller != nil && s.UserID != "" && s.UserID == caller.UserID
}

// PaymentOutcome is what a payment path hands to the materializer.
type PaymentOutcome struct {
	Method  PaymentMethod
	Status  PaymentStatus
	Details PaymentDetails
}

type CheckoutSessionRepository interface {
	CreateSession(ctx context.Context, session *CheckoutSession) (*CheckoutSession, error)
	GetSessionByID(ctx context.Context, id string) (*CheckoutSession, error)
	GetSessionByReference(ctx context.Context, reference string) (*CheckoutSession, error)
	MarkPaymentInitiated(ctx context.Context, id, reference string) (*CheckoutSession, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
