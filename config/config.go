package config

import (
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Version is reported by the root endpoint, overridden at link time
var Version = "1.0.0"

// SysConfig system configuration
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	NodeId   int64  `yaml:"node_id"` // snowflake node used for sweet ids
	Debug    bool   `yaml:"debug"`
}

// WebConfig web server configuration
type WebConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`
}

// DBConfig database configuration
// Type is one of sqlite, postgres, memory or bolt.
type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// LogConfig logger configuration
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// InventoryConfig holds the presentation conventions and input bounds the
// inventory core accepts as parameters.
type InventoryConfig struct {
	LowStockThreshold int      `yaml:"low_stock_threshold"`
	Categories        []string `yaml:"categories"`
	StrictCategories  bool     `yaml:"strict_categories"`
	MaxPrice          float64  `yaml:"max_price"`
	MaxQuantity       int      `yaml:"max_quantity"`
	MaxPurchase       int      `yaml:"max_purchase"`
	MaxRestock        int      `yaml:"max_restock"`
	DefaultPageSize   int      `yaml:"default_page_size"`
	MaxPageSize       int      `yaml:"max_page_size"`
}

// AuthConfig bearer token guard. An empty secret disables the guard.
type AuthConfig struct {
	JwtSecret string `yaml:"jwt_secret"`
	AdminRole string `yaml:"admin_role"`
}

// JobsConfig cron specs for background jobs, empty disables a job
type JobsConfig struct {
	StockReport   string `yaml:"stock_report"`
	SystemMonitor string `yaml:"system_monitor"`
	ImportWorkers int    `yaml:"import_workers"`
}

type AppConfig struct {
	System    SysConfig       `yaml:"system"`
	Web       WebConfig       `yaml:"web"`
	Database  DBConfig        `yaml:"database"`
	Logger    LogConfig       `yaml:"logger"`
	Inventory InventoryConfig `yaml:"inventory"`
	Auth      AuthConfig      `yaml:"auth"`
	Jobs      JobsConfig      `yaml:"jobs"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

// InitDirs creates the working directories
func (c *AppConfig) InitDirs() error {
	for _, dir := range []string{c.GetLogDir(), c.GetDataDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create dir %s", dir)
		}
	}
	return nil
}

// DefaultAppConfig returns the built-in configuration
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "SweetShop",
			Location: "UTC",
			Workdir:  "/var/sweetshop",
			NodeId:   1,
		},
		Web: WebConfig{
			Host:     "0.0.0.0",
			Port:     8000,
			BasePath: "/api/v1",
		},
		Database: DBConfig{
			Type:     "sqlite",
			Host:     "127.0.0.1",
			Port:     5432,
			Name:     "sweetshop.db",
			User:     "postgres",
			MaxConn:  50,
			IdleConn: 5,
		},
		Logger: LogConfig{
			Mode:     "development",
			Filename: "/var/sweetshop/logs/sweetshop.log",
		},
		Inventory: InventoryConfig{
			LowStockThreshold: 10,
			Categories:        []string{"chocolate", "gummy", "candy", "lollipop", "mint"},
			MaxPrice:          10000,
			MaxQuantity:       1000000,
			MaxPurchase:       1000,
			MaxRestock:        1000000,
			DefaultPageSize:   100,
			MaxPageSize:       1000,
		},
		Auth: AuthConfig{
			AdminRole: "admin",
		},
		Jobs: JobsConfig{
			StockReport:   "@every 5m",
			SystemMonitor: "@every 30s",
			ImportWorkers: 8,
		},
	}
}

// LoadConfig reads the yaml file at cfile when it exists, then applies
// environment overrides. An empty path yields the defaults plus overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", cfile)
			}
		case os.IsNotExist(err):
		default:
			return nil, errors.Wrapf(err, "read config %s", cfile)
		}
	}
	applyEnv(cfg)
	cfg.normalize()
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	setEnvValue("SWEETSHOP_SYSTEM_WORKER_DIR", &cfg.System.Workdir)
	setEnvValue("SWEETSHOP_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvInt64Value("SWEETSHOP_SYSTEM_NODE_ID", &cfg.System.NodeId)
	setEnvBoolValue("SWEETSHOP_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("SWEETSHOP_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("SWEETSHOP_WEB_PORT", &cfg.Web.Port)

	setEnvValue("SWEETSHOP_DB_TYPE", &cfg.Database.Type)
	setEnvValue("SWEETSHOP_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("SWEETSHOP_DB_PORT", &cfg.Database.Port)
	setEnvValue("SWEETSHOP_DB_NAME", &cfg.Database.Name)
	setEnvValue("SWEETSHOP_DB_USER", &cfg.Database.User)
	setEnvValue("SWEETSHOP_DB_PWD", &cfg.Database.Passwd)
	setEnvBoolValue("SWEETSHOP_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("SWEETSHOP_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("SWEETSHOP_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	setEnvIntValue("SWEETSHOP_INVENTORY_LOW_STOCK_THRESHOLD", &cfg.Inventory.LowStockThreshold)
	setEnvBoolValue("SWEETSHOP_INVENTORY_STRICT_CATEGORIES", &cfg.Inventory.StrictCategories)
	if v := os.Getenv("SWEETSHOP_INVENTORY_CATEGORIES"); v != "" {
		cfg.Inventory.Categories = strings.Split(v, ",")
	}

	setEnvValue("SWEETSHOP_AUTH_JWT_SECRET", &cfg.Auth.JwtSecret)
	setEnvValue("SWEETSHOP_AUTH_ADMIN_ROLE", &cfg.Auth.AdminRole)
}

func (c *AppConfig) normalize() {
	def := DefaultAppConfig()
	inv := &c.Inventory
	if inv.LowStockThreshold < 0 {
		inv.LowStockThreshold = def.Inventory.LowStockThreshold
	}
	if inv.MaxPrice <= 0 {
		inv.MaxPrice = def.Inventory.MaxPrice
	}
	if inv.MaxQuantity <= 0 {
		inv.MaxQuantity = def.Inventory.MaxQuantity
	}
	if inv.MaxPurchase <= 0 {
		inv.MaxPurchase = def.Inventory.MaxPurchase
	}
	if inv.MaxRestock <= 0 {
		inv.MaxRestock = def.Inventory.MaxRestock
	}
	if inv.MaxPageSize <= 0 {
		inv.MaxPageSize = def.Inventory.MaxPageSize
	}
	if inv.DefaultPageSize <= 0 || inv.DefaultPageSize > inv.MaxPageSize {
		inv.DefaultPageSize = inv.MaxPageSize
		if def.Inventory.DefaultPageSize < inv.MaxPageSize {
			inv.DefaultPageSize = def.Inventory.DefaultPageSize
		}
	}
	categories := make([]string, 0, len(inv.Categories))
	for _, v := range inv.Categories {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			categories = append(categories, v)
		}
	}
	inv.Categories = categories
	if c.Auth.AdminRole == "" {
		c.Auth.AdminRole = def.Auth.AdminRole
	}
	if c.Jobs.ImportWorkers <= 0 {
		c.Jobs.ImportWorkers = def.Jobs.ImportWorkers
	}
}

func setEnvValue(name string, val *string) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = cast.ToBool(evalue)
	}
}

func setEnvInt64Value(name string, val *int64) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	p, err := cast.ToInt64E(evalue)
	if err == nil {
		*val = p
	}
}

func setEnvIntValue(name string, val *int) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	p, err := cast.ToIntE(evalue)
	if err == nil {
		*val = p
	}
}
