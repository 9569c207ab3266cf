package inventory

import (
	"context"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"github.com/talkincode/sweetshop/internal/domain"
	"github.com/talkincode/sweetshop/internal/query"
)

// Stats summarises the catalog
type Stats struct {
	Count          int             `json:"count"`
	TotalUnits     int             `json:"total_units"`
	InStock        int             `json:"in_stock"`
	LowStock       int             `json:"low_stock"`
	OutOfStock     int             `json:"out_of_stock"`
	PriceMean      float64         `json:"price_mean"`
	PriceMedian    float64         `json:"price_median"`
	PriceMin       float64         `json:"price_min"`
	PriceMax       float64         `json:"price_max"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	Categories     map[string]int  `json:"categories"`
}

// Stats computes catalog statistics from a snapshot
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.Snapshot(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(rows, s.cfg.LowStockThreshold), nil
}

// Summarize computes statistics over rows
func Summarize(rows []domain.Sweet, threshold int) Stats {
	st := Stats{
		Count:          len(rows),
		InventoryValue: decimal.Zero,
		Categories:     map[string]int{},
	}
	if len(rows) == 0 {
		return st
	}
	prices := make(stats.Float64Data, 0, len(rows))
	for _, r := range rows {
		st.TotalUnits += r.Quantity
		st.Categories[r.Category]++
		switch query.Classify(r.Quantity, threshold) {
		case query.OutOfStock:
			st.OutOfStock++
		case query.LowStock:
			st.LowStock++
		default:
			st.InStock++
		}
		st.InventoryValue = st.InventoryValue.Add(r.Price.Mul(decimal.NewFromInt(int64(r.Quantity))))
		prices = append(prices, r.Price.InexactFloat64())
	}
	st.PriceMean = round2(prices.Mean())
	st.PriceMedian = round2(prices.Median())
	st.PriceMin = round2(prices.Min())
	st.PriceMax = round2(prices.Max())
	st.InventoryValue = st.InventoryValue.Round(domain.PriceScale)
	return st
}

func round2(v float64, err error) float64 {
	if err != nil {
		return 0
	}
	r, err := stats.Round(v, 2)
	if err != nil {
		return 0
	}
	return r
}
