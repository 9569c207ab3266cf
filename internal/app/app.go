package app

import (
	"os"
	"path"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/talkincode/sweetshop/config"
	"github.com/talkincode/sweetshop/internal/catalog"
	"github.com/talkincode/sweetshop/internal/domain"
	"github.com/talkincode/sweetshop/internal/events"
	"github.com/talkincode/sweetshop/internal/inventory"
	"github.com/talkincode/sweetshop/pkg/common"
	"github.com/talkincode/sweetshop/pkg/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	boltStore *catalog.BoltStore
	store     catalog.Store
	bus       *events.Bus
	inventory *inventory.Service
	sched     *cron.Cron
}

// Ensure Application implements all interfaces
var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ StoreProvider     = (*Application)(nil)
	_ InventoryProvider = (*Application)(nil)
	_ EventProvider     = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

func (a *Application) Store() catalog.Store {
	return a.store
}

func (a *Application) Bus() *events.Bus {
	return a.bus
}

func (a *Application) Inventory() *inventory.Service {
	return a.inventory
}

// Scheduler returns the cron scheduler, nil until StartJobs
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// Init sets up logging, opens the configured catalog backend and builds
// the inventory services on top of it.
func (a *Application) Init(cfg *config.AppConfig) error {
	a.appConfig = cfg
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	if err := initLogger(cfg.Logger); err != nil {
		return err
	}
	common.SetNodeID(cfg.System.NodeId)

	// Initialize metrics with workdir convention
	if err := metrics.InitMetrics(cfg.System.Workdir); err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	switch cfg.Database.Type {
	case "memory":
		a.store = catalog.NewMemoryStore()
	case "bolt":
		if err := cfg.InitDirs(); err != nil {
			return err
		}
		name := common.IfEmptyStr(cfg.Database.Name, "sweetshop.bolt")
		if !path.IsAbs(name) {
			name = path.Join(cfg.GetDataDir(), name)
		}
		a.boltStore, err = catalog.OpenBoltStore(name)
		if err != nil {
			return err
		}
		a.store = a.boltStore
	default:
		a.gormDB, err = getDatabase(cfg)
		if err != nil {
			return err
		}
		if err := a.MigrateDB(cfg.Database.Debug); err != nil {
			return err
		}
		a.store = catalog.NewGormSweetRepository(a.gormDB)
	}
	zap.S().Infof("Catalog store ready, type: %s", common.IfEmptyStr(cfg.Database.Type, "sqlite"))

	a.bus = events.NewBus()
	if err := registerMetrics(a.bus); err != nil {
		return err
	}
	a.inventory = inventory.NewService(a.store, a.bus, cfg.Inventory)
	return nil
}

func initLogger(cfg config.LogConfig) error {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	// Build logger with file rotation if enabled
	var logger *zap.Logger
	if cfg.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			return errors.Wrap(err, "build logger")
		}
	}

	zap.ReplaceGlobals(logger)
	return nil
}

func (a *Application) MigrateDB(track bool) (err error) {
	if a.gormDB == nil {
		return nil
	}
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			if err2, ok := err1.(error); ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	if err := db.Migrator().AutoMigrate(domain.Tables...); err != nil {
		zap.S().Error(err)
		return errors.Wrap(err, "migrate database")
	}
	return nil
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.bus != nil {
		a.bus.WaitAsync()
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.boltStore != nil {
		_ = a.boltStore.Close()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
