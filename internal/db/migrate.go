package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const itemsSchema = `
CREATE TABLE IF NOT EXISTS items (
    id BIGSERIAL PRIMARY KEY,
    owner_subject TEXT NOT NULL,
    name TEXT NOT NULL CHECK (length(btrim(name)) > 0),
    price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS items_owner_subject_idx
ON items (owner_subject, id);
`

// Migrate crea el esquema de items si todavía no existe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, itemsSchema)
	return err
}
