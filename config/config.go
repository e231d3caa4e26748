package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/yeremiapane/pos-dashboard/database"
	"github.com/yeremiapane/pos-dashboard/models"
	"github.com/yeremiapane/pos-dashboard/services"
	"github.com/yeremiapane/pos-dashboard/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
)

type Config struct {
	Port                 string        `mapstructure:"port"`
	GinMode              string        `mapstructure:"gin_mode"`
	LogLevel             string        `mapstructure:"log_level"`
	BackendBaseURL       string        `mapstructure:"backend_base_url"`
	BackendTimeout       time.Duration `mapstructure:"backend_timeout"`
	SessionID            string        `mapstructure:"session_id"`
	StorageDriver        string        `mapstructure:"storage_driver"`
	SQLitePath           string        `mapstructure:"sqlite_path"`
	MySQLDSN             string        `mapstructure:"mysql_dsn"`
	RedisURL             string        `mapstructure:"redis_url"`
	RedisPrefix          string        `mapstructure:"redis_prefix"`
	TrackingPollInterval time.Duration `mapstructure:"tracking_poll_interval"`
	CancellableStatuses  []string      `mapstructure:"cancellable_statuses"`
	CORSOrigin           string        `mapstructure:"cors_origin"`
	RateLimitPerSecond   float64       `mapstructure:"rate_limit_per_second"`
	RateLimitBurst       int           `mapstructure:"rate_limit_burst"`
}

// New returns a viper instance with every default set, so AutomaticEnv can
// resolve each key from the matching upper-case variable.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("log_level", "info")
	v.SetDefault("backend_base_url", "http://localhost:5000")
	v.SetDefault("backend_timeout", 10*time.Second)
	v.SetDefault("session_id", "")
	v.SetDefault("storage_driver", DriverSQLite)
	v.SetDefault("sqlite_path", "pos-dashboard.db")
	v.SetDefault("mysql_dsn", "")
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("redis_prefix", "pos-dashboard:")
	v.SetDefault("tracking_poll_interval", services.DefaultPollInterval)
	v.SetDefault("cancellable_statuses", []string{string(models.OrderStatusPending)})
	v.SetDefault("cors_origin", "*")
	v.SetDefault("rate_limit_per_second", 20.0)
	v.SetDefault("rate_limit_burst", 40)
	v.AutomaticEnv()
	return v
}

// Load reads .env (if present), an optional config file and the environment.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debug("no .env file loaded")
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		utils.InfoLogger.WithField("file", v.ConfigFileUsed()).Info("using config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite, DriverMySQL, DriverRedis:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.StorageDriver == DriverMySQL && c.MySQLDSN == "" {
		return fmt.Errorf("MYSQL_DSN is required for the mysql driver")
	}
	if c.BackendBaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	return nil
}

// OrderStatuses converts the configured cancellable statuses.
func (c *Config) OrderStatuses() []models.OrderStatus {
	out := make([]models.OrderStatus, 0, len(c.CancellableStatuses))
	for _, s := range c.CancellableStatuses {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, models.OrderStatus(s))
		}
	}
	return out
}

// InitDB opens the SQL database for the sqlite or mysql driver.
func InitDB(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var dialector gorm.Dialector
	switch cfg.StorageDriver {
	case DriverMySQL:
		dialector = mysql.Open(cfg.MySQLDSN)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("driver %q is not a SQL driver", cfg.StorageDriver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	utils.InfoLogger.WithField("driver", cfg.StorageDriver).Info("Database connected")
	return db, nil
}

// OpenStore builds the durable local storage for the configured driver. The
// returned func releases it.
func OpenStore(ctx context.Context, cfg *Config) (services.KeyValueStore, func() error, error) {
	if cfg.StorageDriver == DriverRedis {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		store := database.NewRedisStore(client, cfg.RedisPrefix)
		return store, store.Close, nil
	}

	db, err := InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := database.NewGormStore(db)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return store, closeDB, nil
}
