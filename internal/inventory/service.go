package inventory

import (
	"context"
	"fmt"

	"github.com/talkincode/sweetshop/config"
	"github.com/talkincode/sweetshop/internal/catalog"
	"github.com/talkincode/sweetshop/internal/domain"
	"github.com/talkincode/sweetshop/internal/events"
	"github.com/talkincode/sweetshop/internal/ledger"
	"github.com/talkincode/sweetshop/internal/query"
	"go.uber.org/zap"
)

// StockResult is returned by Purchase and Restock
type StockResult struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Quantity int          `json:"quantity"`
	Sweet    domain.Sweet `json:"sweet"`
}

// Service is the inventory facade. It validates and coerces caller input,
// then delegates to the catalog store, the stock ledger and the query engine.
type Service struct {
	store    catalog.Store
	ledger   *ledger.Ledger
	engine   *query.Engine
	bus      *events.Bus
	cfg      config.InventoryConfig
	validate validator
}

func NewService(store catalog.Store, bus *events.Bus, cfg config.InventoryConfig) *Service {
	return &Service{
		store: store,
		ledger: ledger.New(store, bus, ledger.Limits{
			MaxPurchase: cfg.MaxPurchase,
			MaxRestock:  cfg.MaxRestock,
		}),
		engine:   query.NewEngine(store),
		bus:      bus,
		cfg:      cfg,
		validate: validator{cfg: cfg},
	}
}

// Ledger exposes the underlying stock ledger
func (s *Service) Ledger() *ledger.Ledger {
	return s.ledger
}

func (s *Service) Config() config.InventoryConfig {
	return s.cfg
}

// Create validates in and stores a new sweet
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Sweet, error) {
	sweet, err := s.validate.create(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Insert(ctx, sweet); err != nil {
		return nil, err
	}
	zap.L().Info("sweet created", zap.Int64("id", sweet.ID), zap.String("name", sweet.Name))
	s.bus.SweetCreated(*sweet)
	return sweet, nil
}

// UpdateFields applies a partial edit. A supplied quantity overwrites the
// stored value, it is not a delta. The write holds the ledger lock of the
// sweet so it cannot interleave with a running adjustment.
func (s *Service) UpdateFields(ctx context.Context, id int64, in UpdateInput) (*domain.Sweet, error) {
	fields, err := s.validate.update(in)
	if err != nil {
		return nil, err
	}
	var sweet *domain.Sweet
	err = s.ledger.Exclusive(ctx, id, func(ctx context.Context) error {
		var err error
		sweet, err = s.store.Update(ctx, id, fields)
		return err
	})
	if err != nil {
		return nil, err
	}
	if fields.Quantity != nil {
		zap.L().Info("sweet quantity overwritten", zap.Int64("id", id), zap.Int("quantity", *fields.Quantity))
	}
	s.bus.SweetUpdated(*sweet)
	return sweet, nil
}

// Delete removes a sweet. Deleting an unknown or already deleted ID
// returns ErrNotFound.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.ledger.Exclusive(ctx, id, func(ctx context.Context) error {
		return s.store.Remove(ctx, id)
	})
	if err != nil {
		return err
	}
	zap.L().Info("sweet deleted", zap.Int64("id", id))
	s.bus.SweetDeleted(id)
	return nil
}

// Get returns one sweet
func (s *Service) Get(ctx context.Context, id int64) (*domain.Sweet, error) {
	return s.store.Get(ctx, id)
}

// Restock adds count units to a sweet
func (s *Service) Restock(ctx context.Context, id int64, count any) (StockResult, error) {
	n, err := s.validate.count(count)
	if err != nil {
		return StockResult{}, err
	}
	m, err := s.ledger.Restock(ctx, id, n)
	if err != nil {
		return StockResult{}, err
	}
	return StockResult{
		Success:  true,
		Message:  fmt.Sprintf("Successfully restocked %d units of %s", n, m.Sweet.Name),
		Quantity: m.Quantity,
		Sweet:    m.Sweet,
	}, nil
}

// Purchase removes count units from a sweet, or fails with
// ErrInsufficientStock leaving the stock untouched.
func (s *Service) Purchase(ctx context.Context, id int64, count any) (StockResult, error) {
	n, err := s.validate.count(count)
	if err != nil {
		return StockResult{}, err
	}
	m, err := s.ledger.Purchase(ctx, id, n)
	if err != nil {
		return StockResult{}, err
	}
	return StockResult{
		Success:  true,
		Message:  fmt.Sprintf("Successfully purchased %d units of %s", n, m.Sweet.Name),
		Quantity: m.Quantity,
		Sweet:    m.Sweet,
	}, nil
}

// Search runs a filtered query. A missing limit falls back to the default
// page size and a limit above the maximum is capped.
func (s *Service) Search(ctx context.Context, f query.Filter) (query.Page, error) {
	if f.Offset < 0 {
		return query.Page{}, domain.InvalidArgumentf("skip must not be negative")
	}
	if f.Limit < 0 {
		return query.Page{}, domain.InvalidArgumentf("limit must not be negative")
	}
	if f.Limit == 0 {
		f.Limit = s.cfg.DefaultPageSize
	}
	if s.cfg.MaxPageSize > 0 && f.Limit > s.cfg.MaxPageSize {
		f.Limit = s.cfg.MaxPageSize
	}
	return s.engine.Search(ctx, f)
}

// List returns all sweets, optionally only those in stock
func (s *Service) List(ctx context.Context, inStockOnly bool, offset, limit int) (query.Page, error) {
	return s.Search(ctx, query.Filter{InStockOnly: inStockOnly, Offset: offset, Limit: limit})
}

// Snapshot returns every sweet without paging
func (s *Service) Snapshot(ctx context.Context) ([]domain.Sweet, error) {
	page, err := s.engine.Search(ctx, query.Filter{})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Categories returns the configured category vocabulary
func (s *Service) Categories() []string {
	out := make([]string, len(s.cfg.Categories))
	copy(out, s.cfg.Categories)
	return out
}

// Status classifies a quantity with the configured low stock threshold
func (s *Service) Status(quantity int) query.StockStatus {
	return query.Classify(quantity, s.cfg.LowStockThreshold)
}
