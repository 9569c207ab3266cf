package query

import (
	"context"
	"sort"

	"github.com/talkincode/sweetshop/internal/domain"
)

// Source provides a consistent snapshot of the catalog
type Source interface {
	All(ctx context.Context) ([]domain.Sweet, error)
}

// Page is one page of an ordered result
type Page struct {
	Items []domain.Sweet
	Total int // matches before paging
}

// Engine answers filtered searches over a catalog snapshot. Results are
// always ordered by ID ascending, which is creation order.
type Engine struct {
	source Source
}

func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// Search returns the records matching every predicate of f
func (e *Engine) Search(ctx context.Context, f Filter) (Page, error) {
	rows, err := e.source.All(ctx)
	if err != nil {
		return Page{}, err
	}
	m := newMatcher(f)
	items := make([]domain.Sweet, 0, len(rows))
	for i := range rows {
		if m.match(&rows[i]) {
			items = append(items, rows[i])
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return paginate(items, f.Offset, f.Limit), nil
}

// List returns every record, optionally only those in stock
func (e *Engine) List(ctx context.Context, inStockOnly bool, offset, limit int) (Page, error) {
	return e.Search(ctx, Filter{InStockOnly: inStockOnly, Offset: offset, Limit: limit})
}

func paginate(items []domain.Sweet, offset, limit int) Page {
	total := len(items)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return Page{Items: []domain.Sweet{}, Total: total}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return Page{Items: items, Total: total}
}
