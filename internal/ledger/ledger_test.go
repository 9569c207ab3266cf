package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/sweetshop/internal/catalog"
	"github.com/talkincode/sweetshop/internal/domain"
	"github.com/talkincode/sweetshop/internal/events"
)

func setup(t *testing.T, quantity int) (*Ledger, catalog.Store, int64) {
	store := catalog.NewMemoryStore()
	id, err := store.Insert(context.Background(), &domain.Sweet{
		Name:     "Dark Bar",
		Category: "chocolate",
		Price:    decimal.RequireFromString("2.50"),
		Quantity: quantity,
	})
	require.NoError(t, err)
	return New(store, events.NewBus(), Limits{MaxPurchase: 1000, MaxRestock: 1000000}), store, id
}

func TestPurchaseScenario(t *testing.T) {
	ctx := context.Background()
	l, store, id := setup(t, 5)

	m, err := l.Purchase(ctx, id, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Quantity)
	assert.Equal(t, -3, m.Delta)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, n := range []int{2, 1} {
		wg.Add(1)
		go func(i, n int) {
			defer wg.Done()
			_, results[i] = l.Purchase(ctx, id, n)
		}(i, n)
	}
	wg.Wait()

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	switch {
	case results[0] == nil:
		// the 2 unit purchase won
		assert.True(t, errors.Is(results[1], domain.ErrInsufficientStock))
		assert.Equal(t, 0, got.Quantity)
	default:
		assert.True(t, errors.Is(results[0], domain.ErrInsufficientStock))
		assert.NoError(t, results[1])
		assert.Equal(t, 1, got.Quantity)
	}
}

func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	ctx := context.Background()
	l, store, id := setup(t, 100)

	var mu sync.Mutex
	sold := 0
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m, err := l.Purchase(ctx, id, n)
			if err != nil {
				assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
				return
			}
			assert.GreaterOrEqual(t, m.Quantity, 0)
			mu.Lock()
			sold += n
			mu.Unlock()
		}(i%4 + 1)
	}
	wg.Wait()

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 100-sold, got.Quantity)
	assert.GreaterOrEqual(t, got.Quantity, 0)
	assert.Zero(t, l.locks.size())
}

func TestRestockThenPurchaseRestores(t *testing.T) {
	ctx := context.Background()
	l, _, id := setup(t, 7)
	for _, n := range []int{1, 5, 999} {
		_, err := l.Restock(ctx, id, n)
		require.NoError(t, err)
		m, err := l.Purchase(ctx, id, n)
		require.NoError(t, err)
		assert.Equal(t, 7, m.Quantity)
	}
}

func TestPurchaseMoreThanAvailable(t *testing.T) {
	ctx := context.Background()
	l, store, id := setup(t, 4)

	var rejected []events.StockRejected
	require.NoError(t, l.bus.Subscribe(events.TopicStockRejected, func(ev events.StockRejected) {
		rejected = append(rejected, ev)
	}))

	_, err := l.Purchase(ctx, id, 5)
	var serr *domain.InsufficientStockError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 4, serr.Available)
	assert.Equal(t, 5, serr.Requested)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)
	require.Len(t, rejected, 1)
	assert.Equal(t, events.ReasonPurchase, rejected[0].Reason)
}

func TestInvalidCounts(t *testing.T) {
	ctx := context.Background()
	l, _, id := setup(t, 4)
	for _, n := range []int{0, -1, 1001} {
		_, err := l.Purchase(ctx, id, n)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument), "purchase %d", n)
	}
	for _, n := range []int{0, -3, 1000001} {
		_, err := l.Restock(ctx, id, n)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument), "restock %d", n)
	}
	_, err := l.Purchase(ctx, id+1, 1)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAdjust(t *testing.T) {
	ctx := context.Background()
	l, _, id := setup(t, 4)

	var adjusted []events.StockAdjusted
	require.NoError(t, l.bus.Subscribe(events.TopicStockAdjusted, func(ev events.StockAdjusted) {
		adjusted = append(adjusted, ev)
	}))

	q, err := l.Adjust(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, q)
	q, err = l.Adjust(ctx, id, -4)
	require.NoError(t, err)
	assert.Equal(t, 0, q)
	_, err = l.Adjust(ctx, id, -1)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.Len(t, adjusted, 2)
}

func TestDifferentIDsDoNotBlock(t *testing.T) {
	k := newKeyedMutex()
	release := k.Lock(1)
	done := make(chan struct{})
	go func() {
		unlock := k.Lock(2)
		unlock()
		close(done)
	}()
	<-done
	release()
	assert.Zero(t, k.size())
}

func TestExclusive(t *testing.T) {
	ctx := context.Background()
	l, store, id := setup(t, 4)
	qty := 20
	err := l.Exclusive(ctx, id, func(ctx context.Context) error {
		_, err := store.Update(ctx, id, domain.SweetFields{Quantity: &qty})
		return err
	})
	require.NoError(t, err)
	m, err := l.Purchase(ctx, id, 5)
	require.NoError(t, err)
	assert.Equal(t, 15, m.Quantity)
}
