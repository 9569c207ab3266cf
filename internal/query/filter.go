package query

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/talkincode/sweetshop/internal/domain"
	"golang.org/x/text/cases"
)

// Filter holds independently optional predicates, all combined with AND.
// The zero Filter matches every record.
type Filter struct {
	Name         string
	Category     string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	InStockOnly  bool
	UpdatedSince *time.Time

	// Offset and Limit page the ordered result, Limit 0 returns everything
	Offset int
	Limit  int
}

// NormalizeCategory is the stored form of a category
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// matcher is a compiled Filter. It owns a Caser, which is not safe for
// concurrent use, so one is built per search.
type matcher struct {
	filter   Filter
	name     string
	category string
	caser    cases.Caser
}

func newMatcher(f Filter) *matcher {
	m := &matcher{
		filter:   f,
		category: NormalizeCategory(f.Category),
		caser:    cases.Fold(),
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		m.name = m.caser.String(name)
	}
	return m
}

func (m *matcher) match(s *domain.Sweet) bool {
	f := m.filter
	if f.InStockOnly && s.Quantity <= 0 {
		return false
	}
	if m.category != "" && s.Category != m.category {
		return false
	}
	if f.MinPrice != nil && s.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && s.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.UpdatedSince != nil && s.UpdatedAt.Before(*f.UpdatedSince) {
		return false
	}
	if m.name != "" && !strings.Contains(m.caser.String(s.Name), m.name) {
		return false
	}
	return true
}
