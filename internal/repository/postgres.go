package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const (
	pqUniqueViolation  = "23505"
	pqCheckViolation   = "23514"
	pqInvalidTextValue = "22P02"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// isMissing treats malformed ids (not a uuid) like absent rows.
func isMissing(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || pqCode(err) == pqInvalidTextValue
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// withTx commits when fn returns nil and rolls back otherwise, including on panic.
func withTx(ctx context.Context, db *sqlx.DB, log *logrus.Logger, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		log.Errorf("Repository: Failed to begin transaction: %v", err)
		return fmt.Errorf("could not start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error("Repository: Recovered from panic, rolling back transaction")
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Errorf("Repository: Failed to rollback transaction: %v", rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			log.Errorf("Repository: Failed to commit transaction: %v", cErr)
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	err = fn(tx)
	return err
}
