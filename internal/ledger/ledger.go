package ledger

import (
	"context"

	"github.com/pkg/errors"
	"github.com/talkincode/sweetshop/internal/catalog"
	"github.com/talkincode/sweetshop/internal/domain"
	"github.com/talkincode/sweetshop/internal/events"
	"go.uber.org/zap"
)

// Limits caps a single purchase or restock. Zero means unbounded.
type Limits struct {
	MaxPurchase int
	MaxRestock  int
}

// Movement is the outcome of a successful adjustment
type Movement struct {
	Sweet    domain.Sweet
	Delta    int
	Quantity int
}

// Ledger is the only path by which a sweet's quantity changes by delta.
// Adjustments on one ID are serialized by a per-ID lock, adjustments on
// different IDs run independently.
type Ledger struct {
	store  catalog.Store
	locks  *keyedMutex
	bus    *events.Bus
	limits Limits
}

func New(store catalog.Store, bus *events.Bus, limits Limits) *Ledger {
	return &Ledger{
		store:  store,
		locks:  newKeyedMutex(),
		bus:    bus,
		limits: limits,
	}
}

// Adjust applies quantity += delta and returns the new quantity.
func (l *Ledger) Adjust(ctx context.Context, id int64, delta int) (int, error) {
	m, err := l.adjust(ctx, id, delta, events.ReasonAdjust)
	if err != nil {
		return 0, err
	}
	return m.Quantity, nil
}

// Purchase removes count units. It fails with InsufficientStock and leaves
// the record untouched when fewer than count units are available.
func (l *Ledger) Purchase(ctx context.Context, id int64, count int) (Movement, error) {
	if count <= 0 {
		return Movement{}, domain.InvalidArgumentf("purchase quantity must be greater than 0")
	}
	if l.limits.MaxPurchase > 0 && count > l.limits.MaxPurchase {
		return Movement{}, domain.InvalidArgumentf("purchase quantity must not exceed %d", l.limits.MaxPurchase)
	}
	return l.adjust(ctx, id, -count, events.ReasonPurchase)
}

// Restock adds count units, it always succeeds for an existing sweet.
func (l *Ledger) Restock(ctx context.Context, id int64, count int) (Movement, error) {
	if count <= 0 {
		return Movement{}, domain.InvalidArgumentf("restock quantity must be greater than 0")
	}
	if l.limits.MaxRestock > 0 && count > l.limits.MaxRestock {
		return Movement{}, domain.InvalidArgumentf("restock quantity must not exceed %d", l.limits.MaxRestock)
	}
	return l.adjust(ctx, id, count, events.ReasonRestock)
}

// Exclusive runs fn while holding the lock for id. Edits that overwrite
// quantity use it so they never land between the compare and the write of
// an adjustment.
func (l *Ledger) Exclusive(ctx context.Context, id int64, fn func(ctx context.Context) error) error {
	unlock := l.locks.Lock(id)
	defer unlock()
	return fn(ctx)
}

func (l *Ledger) adjust(ctx context.Context, id int64, delta int, reason string) (Movement, error) {
	unlock := l.locks.Lock(id)
	sweet, err := l.store.AdjustQuantity(ctx, id, delta)
	unlock()

	if err != nil {
		var serr *domain.InsufficientStockError
		switch {
		case errors.As(err, &serr):
			zap.L().Info("stock adjustment rejected",
				zap.Int64("id", id),
				zap.String("reason", reason),
				zap.Int("available", serr.Available),
				zap.Int("requested", serr.Requested))
			l.bus.StockRejected(events.StockRejected{
				ID:        id,
				Requested: serr.Requested,
				Available: serr.Available,
				Reason:    reason,
			})
		case errors.Is(err, domain.ErrNotFound):
		default:
			zap.L().Error("stock adjustment failed", zap.Int64("id", id), zap.Int("delta", delta), zap.Error(err))
		}
		return Movement{}, err
	}

	zap.L().Debug("stock adjusted",
		zap.Int64("id", id),
		zap.String("reason", reason),
		zap.Int("delta", delta),
		zap.Int("quantity", sweet.Quantity))
	l.bus.StockAdjusted(events.StockAdjusted{
		ID:       id,
		Delta:    delta,
		Quantity: sweet.Quantity,
		Reason:   reason,
	})
	return Movement{Sweet: *sweet, Delta: delta, Quantity: sweet.Quantity}, nil
}
