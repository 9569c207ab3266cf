package app

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/talkincode/sweetshop/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func getDatabase(cfg *config.AppConfig) (*gorm.DB, error) {
	dbcfg := cfg.Database
	var dialector gorm.Dialector
	switch dbcfg.Type {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=%s",
			dbcfg.Host, dbcfg.Port, dbcfg.User, dbcfg.Passwd, dbcfg.Name, cfg.System.Location)
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(sqlitePath(cfg))
	default:
		return nil, errors.Errorf("unsupported database type %q", dbcfg.Type)
	}

	level := logger.Warn
	if dbcfg.Debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", dbTypeName(dbcfg.Type))
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "database handle")
	}
	if dbcfg.Type == "postgres" {
		sqlDB.SetMaxOpenConns(dbcfg.MaxConn)
		sqlDB.SetMaxIdleConns(dbcfg.IdleConn)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}
	zap.S().Infof("Database connection successful, type: %s", dbTypeName(dbcfg.Type))
	return db, nil
}

func sqlitePath(cfg *config.AppConfig) string {
	name := cfg.Database.Name
	if name == "" {
		name = "sweetshop.db"
	}
	if strings.HasPrefix(name, ":memory:") || strings.HasPrefix(name, "file:") || path.IsAbs(name) {
		return name
	}
	if err := cfg.InitDirs(); err != nil {
		zap.L().Warn("create data dir", zap.Error(err))
	}
	return path.Join(cfg.GetDataDir(), name)
}

func dbTypeName(dbType string) string {
	if dbType == "" {
		return "sqlite"
	}
	return dbType
}
