package repository

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"billing-tracker/internal/domain"
)

// MemoryItemRepository guarda items en memoria con el mismo filtro por dueño
// que PgItemRepository. Se usa como doble en pruebas de servicio y HTTP.
type MemoryItemRepository struct {
	mu     sync.Mutex
	nextID int64
	items  []domain.Item
}

func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{}
}

func (r *MemoryItemRepository) Create(_ context.Context, item domain.Item) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item.ID = r.nextID
	item.UpdatedAt = item.CreatedAt
	r.items = append(r.items, item)
	return item.ID, nil
}

func (r *MemoryItemRepository) ListByOwner(_ context.Context, ownerSubject string) ([]domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Item, 0)
	for _, it := range r.items {
		if it.OwnerSubject == ownerSubject {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *MemoryItemRepository) UpdateOwned(_ context.Context, item domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOwned(item.ID, item.OwnerSubject)
	if idx < 0 {
		return pgx.ErrNoRows
	}
	current := r.items[idx]
	current.Name = item.Name
	current.Price = item.Price
	current.Description = item.Description
	current.UpdatedAt = item.UpdatedAt
	r.items[idx] = current
	return nil
}

func (r *MemoryItemRepository) DeleteOwned(_ context.Context, id int64, ownerSubject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOwned(id, ownerSubject)
	if idx < 0 {
		return pgx.ErrNoRows
	}
	r.items = append(r.items[:idx], r.items[idx+1:]...)
	return nil
}

func (r *MemoryItemRepository) indexOwned(id int64, ownerSubject string) int {
	for i, it := range r.items {
		if it.ID == id && it.OwnerSubject == ownerSubject {
			return i
		}
	}
	return -1
}
