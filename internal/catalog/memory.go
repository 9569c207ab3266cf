package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/talkincode/sweetshop/internal/domain"
)

type memEntry struct {
	id      int64
	mu      sync.Mutex
	sweet   domain.Sweet
	removed bool
}

// MemoryStore keeps sweets in a btree ordered by ID. The tree lock only
// guards the index structure; each record has its own mutex so writes to
// different sweets never wait on each other.
type MemoryStore struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[*memEntry]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tree: btree.NewG[*memEntry](32, func(a, b *memEntry) bool { return a.id < b.id }),
	}
}

func (m *MemoryStore) lookup(id int64) (*memEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.Get(&memEntry{id: id})
}

// locked returns the entry for id with its mutex held
func (m *MemoryStore) locked(id int64) (*memEntry, error) {
	e, ok := m.lookup(id)
	if !ok {
		return nil, domain.NotFoundf(id)
	}
	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return nil, domain.NotFoundf(id)
	}
	return e, nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (*domain.Sweet, error) {
	e, err := m.locked(id)
	if err != nil {
		return nil, err
	}
	s := e.sweet
	e.mu.Unlock()
	return &s, nil
}

func (m *MemoryStore) Insert(_ context.Context, sweet *domain.Sweet) (int64, error) {
	if err := prepareInsert(sweet); err != nil {
		return 0, err
	}
	now := time.Now()
	if sweet.CreatedAt.IsZero() {
		sweet.CreatedAt = now
	}
	sweet.UpdatedAt = now
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tree.Get(&memEntry{id: sweet.ID}); ok {
		return 0, domain.NewValidationError("id", "sweet id already exists")
	}
	m.tree.ReplaceOrInsert(&memEntry{id: sweet.ID, sweet: *sweet})
	return sweet.ID, nil
}

func (m *MemoryStore) Update(_ context.Context, id int64, fields domain.SweetFields) (*domain.Sweet, error) {
	e, err := m.locked(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	if fields.Empty() {
		s := e.sweet
		return &s, nil
	}
	merged, err := merge(e.sweet, fields)
	if err != nil {
		return nil, err
	}
	merged.UpdatedAt = time.Now()
	e.sweet = merged
	return &merged, nil
}

func (m *MemoryStore) Remove(_ context.Context, id int64) error {
	m.mu.Lock()
	e, ok := m.tree.Delete(&memEntry{id: id})
	m.mu.Unlock()
	if !ok {
		return domain.NotFoundf(id)
	}
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	return nil
}

// All copies each record under its own lock, so a snapshot never holds a
// half applied write.
func (m *MemoryStore) All(_ context.Context) ([]domain.Sweet, error) {
	m.mu.RLock()
	entries := make([]*memEntry, 0, m.tree.Len())
	m.tree.Ascend(func(e *memEntry) bool {
		entries = append(entries, e)
		return true
	})
	m.mu.RUnlock()

	rows := make([]domain.Sweet, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			rows = append(rows, e.sweet)
		}
		e.mu.Unlock()
	}
	return rows, nil
}

func (m *MemoryStore) AdjustQuantity(_ context.Context, id int64, delta int) (*domain.Sweet, error) {
	e, err := m.locked(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	if e.sweet.Quantity+delta < 0 {
		return nil, insufficient(&e.sweet, delta)
	}
	e.sweet.Quantity += delta
	e.sweet.UpdatedAt = time.Now()
	s := e.sweet
	return &s, nil
}

// Len returns the number of records
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.Len()
}
