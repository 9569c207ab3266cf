package inventory

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"github.com/talkincode/sweetshop/config"
	"github.com/talkincode/sweetshop/internal/domain"
	"github.com/talkincode/sweetshop/internal/query"
	"github.com/talkincode/sweetshop/pkg/common"
)

const (
	maxNameLen        = 200
	maxCategoryLen    = 100
	maxDescriptionLen = 1000
	maxImageURLLen    = 500
)

// CreateInput carries a new sweet. Price and Quantity accept numbers or
// numeric strings and are coerced during validation.
type CreateInput struct {
	Name        string `json:"name" mapstructure:"name"`
	Category    string `json:"category" mapstructure:"category"`
	Price       any    `json:"price" mapstructure:"price"`
	Quantity    any    `json:"quantity" mapstructure:"quantity"`
	Description string `json:"description" mapstructure:"description"`
	ImageURL    string `json:"image_url" mapstructure:"image_url"`
}

// UpdateInput carries a partial edit. Nil fields are left unchanged.
type UpdateInput struct {
	Name        *string `json:"name" mapstructure:"name"`
	Category    *string `json:"category" mapstructure:"category"`
	Price       any     `json:"price" mapstructure:"price"`
	Quantity    any     `json:"quantity" mapstructure:"quantity"`
	Description *string `json:"description" mapstructure:"description"`
	ImageURL    *string `json:"image_url" mapstructure:"image_url"`
}

type validator struct {
	cfg config.InventoryConfig
}

// toDecimal coerces a loosely typed number. Results outside the accepted
// magnitude fail with domain.ErrOutOfRange before any comparison.
func toDecimal(v any) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch n := v.(type) {
	case decimal.Decimal:
		d = n
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, errors.New("missing number")
		}
		d = *n
	case string:
		return domain.ParseAmount(n)
	case json.Number:
		return domain.ParseAmount(n.String())
	case float64:
		d = decimal.NewFromFloat(n)
	case float32:
		d = decimal.NewFromFloat32(n)
	case bool:
		return decimal.Zero, errors.New("not a number")
	default:
		i, err := cast.ToInt64E(v)
		if err != nil {
			return decimal.Zero, err
		}
		d = decimal.NewFromInt(i)
	}
	if err := domain.CheckAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func (v validator) name(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.NewValidationError("name", "name is required")
	}
	if utf8.RuneCountInString(s) > maxNameLen {
		return "", domain.NewValidationError("name", "name must be at most 200 characters")
	}
	return s, nil
}

func (v validator) category(s string) (string, error) {
	s = query.NormalizeCategory(s)
	if s == "" {
		return "", domain.NewValidationError("category", "category is required")
	}
	if utf8.RuneCountInString(s) > maxCategoryLen {
		return "", domain.NewValidationError("category", "category must be at most 100 characters")
	}
	if v.cfg.StrictCategories && !common.InSlice(s, v.cfg.Categories) {
		return "", domain.NewValidationError("category", "category must be one of "+strings.Join(v.cfg.Categories, ", "))
	}
	return s, nil
}

func (v validator) price(raw any) (decimal.Decimal, error) {
	if raw == nil {
		return decimal.Zero, domain.NewValidationError("price", "price is required")
	}
	p, err := toDecimal(raw)
	if errors.Is(err, domain.ErrOutOfRange) {
		return decimal.Zero, domain.NewValidationError("price", "price is out of range")
	}
	if err != nil {
		return decimal.Zero, domain.NewValidationError("price", "price must be a number")
	}
	p = p.Round(domain.PriceScale)
	if !p.IsPositive() {
		return decimal.Zero, domain.NewValidationError("price", "price must be greater than 0")
	}
	if v.cfg.MaxPrice > 0 && p.GreaterThan(decimal.NewFromFloat(v.cfg.MaxPrice)) {
		return decimal.Zero, domain.NewValidationError("price", "price must not exceed "+decimal.NewFromFloat(v.cfg.MaxPrice).String())
	}
	return p, nil
}

func (v validator) quantity(raw any) (int, error) {
	if raw == nil {
		return 0, domain.NewValidationError("quantity", "quantity is required")
	}
	q, err := toDecimal(raw)
	if errors.Is(err, domain.ErrOutOfRange) {
		return 0, domain.NewValidationError("quantity", "quantity is out of range")
	}
	if err != nil || !q.IsInteger() {
		return 0, domain.NewValidationError("quantity", "quantity must be a whole number")
	}
	if q.IsNegative() {
		return 0, domain.NewValidationError("quantity", "quantity must not be negative")
	}
	if v.cfg.MaxQuantity > 0 && q.GreaterThan(decimal.NewFromInt(int64(v.cfg.MaxQuantity))) {
		return 0, domain.NewValidationError("quantity", "quantity must not exceed "+cast.ToString(v.cfg.MaxQuantity))
	}
	return int(q.IntPart()), nil
}

func (v validator) text(field string, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > max {
		return "", domain.NewValidationError(field, field+" must be at most "+cast.ToString(max)+" characters")
	}
	return s, nil
}

// count coerces a purchase or restock count
func (v validator) count(raw any) (int, error) {
	if raw == nil {
		return 0, domain.InvalidArgumentf("quantity is required")
	}
	q, err := toDecimal(raw)
	if errors.Is(err, domain.ErrOutOfRange) {
		return 0, domain.InvalidArgumentf("quantity is out of range")
	}
	if err != nil || !q.IsInteger() {
		return 0, domain.InvalidArgumentf("quantity must be a whole number")
	}
	if !q.IsPositive() {
		return 0, domain.InvalidArgumentf("quantity must be greater than 0")
	}
	if !q.LessThanOrEqual(decimal.NewFromInt(int64(maxInt32))) {
		return 0, domain.InvalidArgumentf("quantity is too large")
	}
	return int(q.IntPart()), nil
}

const maxInt32 = 1<<31 - 1

func (v validator) create(in CreateInput) (*domain.Sweet, error) {
	var err error
	s := &domain.Sweet{}
	if s.Name, err = v.name(in.Name); err != nil {
		return nil, err
	}
	if s.Category, err = v.category(in.Category); err != nil {
		return nil, err
	}
	if s.Price, err = v.price(in.Price); err != nil {
		return nil, err
	}
	if s.Quantity, err = v.quantity(in.Quantity); err != nil {
		return nil, err
	}
	if s.Description, err = v.text("description", in.Description, maxDescriptionLen); err != nil {
		return nil, err
	}
	if s.ImageURL, err = v.text("image_url", in.ImageURL, maxImageURLLen); err != nil {
		return nil, err
	}
	return s, nil
}

func (v validator) update(in UpdateInput) (domain.SweetFields, error) {
	var f domain.SweetFields
	if in.Name != nil {
		name, err := v.name(*in.Name)
		if err != nil {
			return f, err
		}
		f.Name = &name
	}
	if in.Category != nil {
		category, err := v.category(*in.Category)
		if err != nil {
			return f, err
		}
		f.Category = &category
	}
	if in.Price != nil {
		price, err := v.price(in.Price)
		if err != nil {
			return f, err
		}
		f.Price = &price
	}
	if in.Quantity != nil {
		quantity, err := v.quantity(in.Quantity)
		if err != nil {
			return f, err
		}
		f.Quantity = &quantity
	}
	if in.Description != nil {
		description, err := v.text("description", *in.Description, maxDescriptionLen)
		if err != nil {
			return f, err
		}
		f.Description = &description
	}
	if in.ImageURL != nil {
		imageURL, err := v.text("image_url", *in.ImageURL, maxImageURLLen)
		if err != nil {
			return f, err
		}
		f.ImageURL = &imageURL
	}
	return f, nil
}
