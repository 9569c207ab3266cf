package catalog

import (
	"context"

	"github.com/talkincode/sweetshop/internal/domain"
	"github.com/talkincode/sweetshop/pkg/common"
)

// Store is the durable table of sweet records. It owns identity and
// existence; every implementation enforces the record invariants on write.
type Store interface {
	// Get retrieves a sweet by ID
	Get(ctx context.Context, id int64) (*domain.Sweet, error)

	// Insert stores a new sweet and returns its assigned ID
	Insert(ctx context.Context, sweet *domain.Sweet) (int64, error)

	// Update merges the supplied fields and returns the resulting record
	Update(ctx context.Context, id int64, fields domain.SweetFields) (*domain.Sweet, error)

	// Remove deletes a sweet, removing an absent ID returns ErrNotFound
	Remove(ctx context.Context, id int64) error

	// All returns every sweet ordered by ID ascending
	All(ctx context.Context) ([]domain.Sweet, error)

	// AdjustQuantity applies quantity += delta as one conditional step.
	// A step that would make quantity negative fails with an
	// *domain.InsufficientStockError and leaves the record unchanged.
	AdjustQuantity(ctx context.Context, id int64, delta int) (*domain.Sweet, error)
}

// prepareInsert rounds the price, validates the record and assigns a fresh
// ID when none is set. Validation runs on the stored form of the price.
func prepareInsert(sweet *domain.Sweet) error {
	sweet.Price = sweet.Price.Round(domain.PriceScale)
	if err := sweet.Validate(); err != nil {
		return err
	}
	if sweet.ID == 0 {
		sweet.ID = common.UUIDint64()
	}
	return nil
}

// merge applies fields to a copy of current and validates the result
func merge(current domain.Sweet, fields domain.SweetFields) (domain.Sweet, error) {
	if fields.Price != nil {
		p := fields.Price.Round(domain.PriceScale)
		fields.Price = &p
	}
	fields.Apply(&current)
	if err := current.Validate(); err != nil {
		return current, err
	}
	return current, nil
}

func insufficient(s *domain.Sweet, delta int) error {
	return &domain.InsufficientStockError{
		ID:        s.ID,
		Name:      s.Name,
		Available: s.Quantity,
		Requested: -delta,
	}
}
