package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/domain"
)

var _ domain.MenuRepository = (*postgresMenuRepository)(nil)

type postgresMenuRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresMenuRepository(db *sqlx.DB, logger *logrus.Logger) domain.MenuRepository {
	return &postgresMenuRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresMenuRepository) FindMenuItemsByIDs(ctx context.Context, ids []string) ([]domain.MenuItem, error) {
	items := make([]domain.MenuItem, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	err := r.db.SelectContext(ctx, &items,
		`SELECT id, name, price, category FROM menu_items WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		r.log.Errorf("Repository: Failed to look up %d menu items: %v", len(ids), err)
		return nil, fmt.Errorf("could not retrieve menu items: %w", err)
	}

	r.log.Infof("Repository: Found %d of %d menu items", len(items), len(ids))
	return items, nil
}
