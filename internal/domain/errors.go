package domain

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindItemNotFound
	KindForbidden
	KindSessionNotFound
	KindSessionExpired
	KindOrderNotFound
	KindPaymentMismatch
	KindGateway
	KindInvalidStatus
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindItemNotFound:
		return "item_not_found"
	case KindForbidden:
		return "forbidden"
	case KindSessionNotFound:
		return "session_not_found"
	case KindSessionExpired:
		return "session_expired"
	case KindOrderNotFound:
		return "order_not_found"
	case KindPaymentMismatch:
		return "payment_mismatch"
	case KindGateway:
		return "gateway_error"
	case KindInvalidStatus:
		return "invalid_status"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Codes refine a kind where the client recovery action differs.
const (
	CodePaymentNotSuccessful = "payment_not_successful"
	CodeAmountMismatch       = "amount_mismatch"
	CodeGatewayUnavailable   = "gateway_unavailable"
	CodeGatewayRejected      = "gateway_rejected"
	CodeGatewayNotConfigured = "gateway_not_configured"
)

// Error carries a kind the caller can branch on, a message safe to show to the user
// and an optional wrapped cause that stays server-side.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and code, so errors.Is works against the
// exported sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		if de.Code != "" {
			return de.Code
		}
		return de.Kind.String()
	}
	return KindInternal.String()
}

// MessageOf returns the user-facing message, hiding internal causes.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "Internal server error"
}

var (
	ErrValidation      = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrItemNotFound    = &Error{Kind: KindItemNotFound, Message: "Some selected menu items were not found."}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "Not allowed for this checkout session."}
	ErrSessionNotFound = &Error{Kind: KindSessionNotFound, Message: "Checkout session not found."}
	ErrSessionExpired  = &Error{Kind: KindSessionExpired, Message: "Checkout session expired."}
	ErrOrderNotFound   = &Error{Kind: KindOrderNotFound, Message: "Order not found."}
	ErrPaymentMismatch = &Error{Kind: KindPaymentMismatch, Message: "Payment could not be matched to the checkout."}
	ErrGateway         = &Error{Kind: KindGateway, Message: "Payment gateway request failed."}
	ErrInvalidStatus   = &Error{Kind: KindInvalidStatus, Message: "Invalid order status."}
	ErrConflict        = &Error{Kind: KindConflict, Message: "Conflicting state."}
)

func NewValidationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewForbiddenError(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NewConflictError(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

func NewPaymentNotSuccessfulError(gatewayStatus string) error {
	return &Error{
		Kind:    KindPaymentMismatch,
		Code:    CodePaymentNotSuccessful,
		Message: "Paystack payment is not successful.",
		Err:     fmt.Errorf("gateway reported status %q", gatewayStatus),
	}
}

func NewAmountMismatchError(expected, actual int64) error {
	return &Error{
		Kind:    KindPaymentMismatch,
		Code:    CodeAmountMismatch,
		Message: "Payment amount does not match checkout total.",
		Err:     fmt.Errorf("expected %d minor units, gateway reported %d", expected, actual),
	}
}

func NewGatewayError(code, message string, cause error) error {
	return &Error{Kind: KindGateway, Code: code, Message: message, Err: cause}
}
