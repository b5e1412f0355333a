package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/domain"
)

var _ domain.CheckoutSessionRepository = (*postgresCheckoutSessionRepository)(nil)

type postgresCheckoutSessionRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresCheckoutSessionRepository(db *sqlx.DB, logger *logrus.Logger) domain.CheckoutSessionRepository {
	return &postgresCheckoutSessionRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresCheckoutSessionRepository) CreateSession(ctx context.Context, session *domain.CheckoutSession) (*domain.CheckoutSession, error) {
	draft, err := json.Marshal(session.OrderDraft)
	if err != nil {
		return nil, fmt.Errorf("could not encode order draft: %w", err)
	}

	err = r.db.QueryRowxContext(ctx, `
		INSERT INTO checkout_sessions (id, email, amount_kobo, payment_method, order_draft, user_id, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		session.ID, session.Email, session.AmountKobo, string(session.PaymentMethod), string(draft),
		nullString(session.UserID), string(session.Status), session.ExpiresAt,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		r.log.Errorf("Repository: Failed to insert checkout session %s: %v", session.ID, err)
		if pqCode(err) == pqCheckViolation {
			return nil, domain.NewValidationError("Checkout session data is invalid.")
		}
		return nil, fmt.Errorf("could not create checkout session: %w", err)
	}

	r.log.Infof("Repository: Checkout session %s created", session.ID)
	return session, nil
}

func (r *postgresCheckoutSessionRepository) getSession(ctx context.Context, where string, arg any) (*domain.CheckoutSession, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, `SELECT `+sessionColumns+` FROM checkout_sessions WHERE `+where, arg)
	if err != nil {
		if isMissing(err) {
			r.log.Warnf("Repository: Checkout session not found (%s %v)", where, arg)
			return nil, domain.ErrSessionNotFound
		}
		r.log.Errorf("Repository: Failed to get checkout session (%s %v): %v", where, arg, err)
		return nil, fmt.Errorf("could not retrieve checkout session: %w", err)
	}
	return row.toDomain()
}

func (r *postgresCheckoutSessionRepository) GetSessionByID(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	return r.getSession(ctx, `id = $1`, id)
}

func (r *postgresCheckoutSessionRepository) GetSessionByReference(ctx context.Context, reference string) (*domain.CheckoutSession, error) {
	return r.getSession(ctx, `paystack_reference = $1`, reference)
}

// MarkPaymentInitiated records the gateway reference. A session that already produced an
// order cannot be re-initiated.
func (r *postgresCheckoutSessionRepository) MarkPaymentInitiated(ctx context.Context, id, reference string) (*domain.CheckoutSession, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, `
		UPDATE checkout_sessions
		SET paystack_reference = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND order_id IS NULL
		RETURNING `+sessionColumns,
		id, reference, string(domain.CheckoutPaymentInitiated))
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			r.log.Warnf("Repository: Payment reference %s already in use", reference)
			return nil, domain.NewConflictError("Payment reference already in use.")
		}
		if isMissing(err) {
			if _, getErr := r.GetSessionByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, domain.NewConflictError("Checkout session already completed.")
		}
		r.log.Errorf("Repository: Failed to mark session %s as payment initiated: %v", id, err)
		return nil, fmt.Errorf("could not update checkout session: %w", err)
	}

	r.log.Infof("Repository: Checkout session %s payment initiated with reference %s", id, reference)
	return row.toDomain()
}

func (r *postgresCheckoutSessionRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM checkout_sessions WHERE order_id IS NULL AND expires_at <= $1`, now)
	if err != nil {
		r.log.Errorf("Repository: Failed to delete expired checkout sessions: %v", err)
		return 0, fmt.Errorf("could not delete expired checkout sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not count deleted checkout sessions: %w", err)
	}
	return n, nil
}
