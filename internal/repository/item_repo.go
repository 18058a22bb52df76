package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"billing-tracker/internal/domain"
)

// ItemRepository define el contrato de persistencia para items.
// Todas las consultas van filtradas por owner_subject; un item de otro dueño
// se reporta como pgx.ErrNoRows, igual que uno inexistente.
type ItemRepository interface {
	Create(ctx context.Context, item domain.Item) (int64, error)
	ListByOwner(ctx context.Context, ownerSubject string) ([]domain.Item, error)
	UpdateOwned(ctx context.Context, item domain.Item) error
	DeleteOwned(ctx context.Context, id int64, ownerSubject string) error
}

// PgItemRepository implementa ItemRepository usando pgxpool.
type PgItemRepository struct {
	pool *pgxpool.Pool
}

func NewPgItemRepository(pool *pgxpool.Pool) *PgItemRepository {
	return &PgItemRepository{pool: pool}
}

func (r *PgItemRepository) Create(ctx context.Context, item domain.Item) (int64, error) {
	const query = `
		INSERT INTO items (owner_subject, name, price, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		item.OwnerSubject,
		item.Name,
		item.Price,
		item.Description,
		item.CreatedAt,
	).Scan(&id)
	return id, err
}

func (r *PgItemRepository) ListByOwner(ctx context.Context, ownerSubject string) ([]domain.Item, error) {
	const query = `
		SELECT id, owner_subject, name, price, description, created_at, updated_at
		FROM items
		WHERE owner_subject = $1
		ORDER BY id ASC
	`
	rows, err := r.pool.Query(ctx, query, ownerSubject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(
			&it.ID,
			&it.OwnerSubject,
			&it.Name,
			&it.Price,
			&it.Description,
			&it.CreatedAt,
			&it.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PgItemRepository) UpdateOwned(ctx context.Context, item domain.Item) error {
	const query = `
		UPDATE items
		SET name = $3, price = $4, description = $5, updated_at = $6
		WHERE id = $1 AND owner_subject = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		item.ID,
		item.OwnerSubject,
		item.Name,
		item.Price,
		item.Description,
		item.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgItemRepository) DeleteOwned(ctx context.Context, id int64, ownerSubject string) error {
	const query = `
		DELETE FROM items
		WHERE id = $1 AND owner_subject = $2
	`
	tag, err := r.pool.Exec(ctx, query, id, ownerSubject)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
