package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// PriceScale is the number of decimal places kept for prices.
const PriceScale = 2

// Sweet represents a sellable catalog item
type Sweet struct {
	ID          int64           `gorm:"primaryKey;autoIncrement:false" json:"id,string" csv:"id"`
	Name        string          `gorm:"size:200;index" json:"name" csv:"name"`
	Category    string          `gorm:"size:100;index" json:"category" csv:"category"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2)" json:"price" csv:"-"`
	Quantity    int             `json:"quantity" csv:"quantity"`
	Description string          `gorm:"size:1000" json:"description" csv:"description"`
	ImageURL    string          `gorm:"size:500" json:"image_url" csv:"image_url"`
	CreatedAt   time.Time       `json:"created_at" csv:"-"`
	UpdatedAt   time.Time       `json:"updated_at" csv:"-"`
}

// TableName returns table name
func (Sweet) TableName() string {
	return "sweets"
}

// InStock reports whether any units are available
func (s *Sweet) InStock() bool {
	return s.Quantity > 0
}

// Validate checks the record level invariants every store enforces on write.
func (s *Sweet) Validate() error {
	if !s.Price.IsPositive() {
		return NewValidationError("price", "price must be greater than 0")
	}
	if s.Quantity < 0 {
		return NewValidationError("quantity", "quantity must not be negative")
	}
	return nil
}

// SweetFields is a partial update. Nil fields are left unchanged.
type SweetFields struct {
	Name        *string
	Category    *string
	Price       *decimal.Decimal
	Quantity    *int
	Description *string
	ImageURL    *string
}

// Empty reports whether no field is supplied
func (f SweetFields) Empty() bool {
	return f.Name == nil && f.Category == nil && f.Price == nil &&
		f.Quantity == nil && f.Description == nil && f.ImageURL == nil
}

// Apply merges the supplied fields into s
func (f SweetFields) Apply(s *Sweet) {
	if f.Name != nil {
		s.Name = *f.Name
	}
	if f.Category != nil {
		s.Category = *f.Category
	}
	if f.Price != nil {
		s.Price = *f.Price
	}
	if f.Quantity != nil {
		s.Quantity = *f.Quantity
	}
	if f.Description != nil {
		s.Description = *f.Description
	}
	if f.ImageURL != nil {
		s.ImageURL = *f.ImageURL
	}
}

// Columns returns the column updates for gorm
func (f SweetFields) Columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if f.Name != nil {
		updates["name"] = *f.Name
	}
	if f.Category != nil {
		updates["category"] = *f.Category
	}
	if f.Price != nil {
		updates["price"] = *f.Price
	}
	if f.Quantity != nil {
		updates["quantity"] = *f.Quantity
	}
	if f.Description != nil {
		updates["description"] = *f.Description
	}
	if f.ImageURL != nil {
		updates["image_url"] = *f.ImageURL
	}
	return updates
}
