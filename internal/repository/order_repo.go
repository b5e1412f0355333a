package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/domain"
)

const insertOrderSQL = `
	INSERT INTO orders (id, checkout_session_id, customer_name, email, phone, items, sub_total,
		delivery_type, delivery_address, delivery_fee, total, notes, user_id, payment_method,
		payment_status, payment_details, payment_reference, order_status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

var _ domain.OrderRepository = (*postgresOrderRepository)(nil)

type postgresOrderRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresOrderRepository(db *sqlx.DB, logger *logrus.Logger) domain.OrderRepository {
	return &postgresOrderRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args, err := orderInsertArgs(order)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowxContext(ctx, insertOrderSQL+` RETURNING created_at, updated_at`, args...).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.log.Errorf("Repository: Failed to insert order %s: %v", order.ID, err)
		switch pqCode(err) {
		case pqUniqueViolation:
			return nil, domain.NewConflictError("Order already exists.")
		case pqCheckViolation:
			return nil, domain.NewValidationError("Order data is invalid.")
		}
		return nil, fmt.Errorf("could not create order: %w", err)
	}

	r.log.Infof("Repository: Order %s created (%s, total=%d)", order.ID, order.PaymentMethod, order.Total)
	return order, nil
}

// MaterializeOrder locks the session row so concurrent completions of one session serialize, and
// relies on the unique payment_reference and checkout_session_id columns for everything else.
func (r *postgresOrderRepository) MaterializeOrder(ctx context.Context, sessionID string, order *domain.Order) (*domain.Order, bool, error) {
	args, err := orderInsertArgs(order)
	if err != nil {
		return nil, false, err
	}

	var stored *domain.Order
	created := false

	err = withTx(ctx, r.db, r.log, func(tx *sqlx.Tx) error {
		var stampedOrderID sql.NullString
		err := tx.GetContext(ctx, &stampedOrderID,
			`SELECT order_id FROM checkout_sessions WHERE id = $1 FOR UPDATE`, sessionID)
		if err != nil {
			if isMissing(err) {
				return domain.ErrSessionNotFound
			}
			return fmt.Errorf("could not lock checkout session %s: %w", sessionID, err)
		}

		if stampedOrderID.Valid {
			existing, err := r.getOrder(ctx, tx, `id = $1`, stampedOrderID.String)
			if err == nil {
				stored = existing
				return nil
			}
			if !errors.Is(err, domain.ErrOrderNotFound) {
				return err
			}
			r.log.Warnf("Repository: Session %s references missing order %s", sessionID, stampedOrderID.String)
		}

		err = tx.QueryRowxContext(ctx, insertOrderSQL+` ON CONFLICT DO NOTHING RETURNING created_at, updated_at`, args...).
			Scan(&order.CreatedAt, &order.UpdatedAt)
		switch {
		case err == nil:
			stored = order
			created = true
		case errors.Is(err, sql.ErrNoRows):
			winner, err := r.getOrder(ctx, tx,
				`checkout_session_id = $1 OR (payment_reference IS NOT NULL AND payment_reference = $2)`,
				sessionID, nullString(order.PaymentReference()))
			if err != nil {
				return fmt.Errorf("could not load conflicting order for session %s: %w", sessionID, err)
			}
			stored = winner
		default:
			return fmt.Errorf("could not insert order for session %s: %w", sessionID, err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE checkout_sessions SET order_id = $2, status = $3, updated_at = NOW() WHERE id = $1`,
			sessionID, stored.ID, string(domain.CheckoutCompleted))
		if err != nil {
			return fmt.Errorf("could not complete checkout session %s: %w", sessionID, err)
		}
		return nil
	})
	if err != nil {
		r.log.Errorf("Repository: Materialization for session %s failed: %v", sessionID, err)
		return nil, false, err
	}

	if created {
		r.log.Infof("Repository: Order %s materialized for session %s", stored.ID, sessionID)
	} else {
		r.log.Infof("Repository: Session %s already has order %s", sessionID, stored.ID)
	}
	return stored, created, nil
}

func (r *postgresOrderRepository) getOrder(ctx context.Context, q sqlx.QueryerContext, where string, args ...any) (*domain.Order, error) {
	var row orderRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+orderColumns+` FROM orders WHERE `+where+` LIMIT 1`, args...)
	if err != nil {
		if isMissing(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("could not retrieve order: %w", err)
	}
	return row.toDomain()
}

func (r *postgresOrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := r.getOrder(ctx, r.db, `id = $1`, id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			r.log.Warnf("Repository: Order %s not found", id)
		} else {
			r.log.Errorf("Repository: Failed to get order %s: %v", id, err)
		}
		return nil, err
	}
	return order, nil
}

func (r *postgresOrderRepository) FindOrderByPaymentReference(ctx context.Context, reference string) (*domain.Order, error) {
	order, err := r.getOrder(ctx, r.db, `payment_reference = $1`, reference)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Repository: Failed to look up order by reference %s: %v", reference, err)
		return nil, err
	}
	return order, nil
}

func (r *postgresOrderRepository) ListOrdersByOwner(ctx context.Context, userID, email string, limit int) ([]domain.Order, error) {
	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1 <> '' AND user_id = $1) OR ($2 <> '' AND LOWER(email) = LOWER($2))
		ORDER BY created_at DESC
		LIMIT $3`, userID, email, limit)
	if err != nil {
		r.log.Errorf("Repository: Failed to list orders for user %s: %v", userID, err)
		return nil, fmt.Errorf("could not list orders: %w", err)
	}
	return ordersToDomain(rows)
}

func (r *postgresOrderRepository) ListOrders(ctx context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1 = '' OR order_status = $1)
		ORDER BY created_at DESC
		LIMIT $2`, string(status), limit)
	if err != nil {
		r.log.Errorf("Repository: Failed to list orders (status=%q): %v", status, err)
		return nil, fmt.Errorf("could not list orders: %w", err)
	}
	return ordersToDomain(rows)
}

func (r *postgresOrderRepository) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `
		UPDATE orders SET order_status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+orderColumns, id, string(status))
	if err != nil {
		if isMissing(err) {
			r.log.Warnf("Repository: Order %s not found for status update", id)
			return nil, domain.ErrOrderNotFound
		}
		if pqCode(err) == pqCheckViolation {
			return nil, domain.ErrInvalidStatus
		}
		r.log.Errorf("Repository: Failed to update order %s status: %v", id, err)
		return nil, fmt.Errorf("could not update order status: %w", err)
	}
	r.log.Infof("Repository: Order %s status set to %s", id, status)
	return row.toDomain()
}
