package app

import (
	"context"
	"io"

	"github.com/robfig/cron/v3"
	"github.com/talkincode/sweetshop/config"
	"github.com/talkincode/sweetshop/internal/catalog"
	"github.com/talkincode/sweetshop/internal/events"
	"github.com/talkincode/sweetshop/internal/inventory"
	"github.com/talkincode/sweetshop/internal/query"
	"gorm.io/gorm"
)

// DBProvider provides database access, nil for the memory and bolt backends
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// StoreProvider provides the catalog store
type StoreProvider interface {
	Store() catalog.Store
}

// InventoryProvider provides the inventory facade
type InventoryProvider interface {
	Inventory() *inventory.Service
}

// EventProvider provides the event bus
type EventProvider interface {
	Bus() *events.Bus
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// AppContext combines all provider interfaces for full application context
// Services should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	StoreProvider
	InventoryProvider
	EventProvider
	SchedulerProvider

	// MigrateDB creates or updates the schema of the sql backends
	MigrateDB(track bool) error
	// SeedSweets fills an empty catalog with sample sweets
	SeedSweets(ctx context.Context) (int, error)
	// ImportCatalog creates sweets from csv rows
	ImportCatalog(ctx context.Context, r io.Reader) (*ImportReport, error)
	// ExportCatalog writes matching sweets as csv or xlsx
	ExportCatalog(ctx context.Context, w io.Writer, format string, f query.Filter) error
}
