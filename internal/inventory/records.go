package inventory

import (
	"strconv"
	"strings"
	"time"

	"github.com/talkincode/sweetshop/internal/domain"
)

// CatalogRecord is the flat row used by catalog import and export
type CatalogRecord struct {
	ID          string `csv:"id"`
	Name        string `csv:"name"`
	Category    string `csv:"category"`
	Price       string `csv:"price"`
	Quantity    string `csv:"quantity"`
	Description string `csv:"description"`
	ImageURL    string `csv:"image_url"`
	StockStatus string `csv:"stock_status"`
	UpdatedAt   string `csv:"updated_at"`
}

// Record flattens a sweet for export
func (s *Service) Record(sweet domain.Sweet) CatalogRecord {
	return CatalogRecord{
		ID:          strconv.FormatInt(sweet.ID, 10),
		Name:        sweet.Name,
		Category:    sweet.Category,
		Price:       sweet.Price.StringFixed(domain.PriceScale),
		Quantity:    strconv.Itoa(sweet.Quantity),
		Description: sweet.Description,
		ImageURL:    sweet.ImageURL,
		StockStatus: string(s.Status(sweet.Quantity)),
		UpdatedAt:   sweet.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateInput converts an imported row. ID, stock status and update time
// are derived values and ignored.
func (r CatalogRecord) CreateInput() CreateInput {
	in := CreateInput{
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		ImageURL:    r.ImageURL,
	}
	if p := strings.TrimSpace(r.Price); p != "" {
		in.Price = p
	}
	if q := strings.TrimSpace(r.Quantity); q != "" {
		in.Quantity = q
	}
	return in
}
