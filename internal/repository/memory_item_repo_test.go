package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"billing-tracker/internal/domain"
)

func TestMemoryItemRepository_OwnerScoping(t *testing.T) {
	repo := NewMemoryItemRepository()
	ctx := context.Background()

	id, err := repo.Create(ctx, domain.Item{OwnerSubject: "alice", Name: "widget", Price: 1, CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	items, _ := repo.ListByOwner(ctx, "bob")
	if len(items) != 0 {
		t.Fatalf("expected bob to see no items, got %d", len(items))
	}

	err = repo.UpdateOwned(ctx, domain.Item{ID: id, OwnerSubject: "bob", Name: "x"})
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows for foreign update, got %v", err)
	}
	if err := repo.DeleteOwned(ctx, id, "bob"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows for foreign delete, got %v", err)
	}

	items, _ = repo.ListByOwner(ctx, "alice")
	if len(items) != 1 || items[0].Name != "widget" {
		t.Fatalf("expected alice item untouched, got %+v", items)
	}
}

func TestMemoryItemRepository_IDsAreMonotonic(t *testing.T) {
	repo := NewMemoryItemRepository()
	ctx := context.Background()

	first, _ := repo.Create(ctx, domain.Item{OwnerSubject: "alice", Name: "a"})
	if err := repo.DeleteOwned(ctx, first, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	second, _ := repo.Create(ctx, domain.Item{OwnerSubject: "alice", Name: "b"})
	if second <= first {
		t.Fatalf("expected fresh id after delete, got %d then %d", first, second)
	}
}
