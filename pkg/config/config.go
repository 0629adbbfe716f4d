package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Redis   RedisConfig
	Storage StorageConfig
	Auth    AuthConfig
	Watcher WatcherConfig
	MoMo    MoMoConfig
	CORS    CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// StorageConfig names the keys this service reads and writes in the key-value
// store. The session token and user keys are written by the auth flow and read
// by the cart lifecycle watcher.
type StorageConfig struct {
	CartKey         string `envconfig:"STOREFRONT_STORAGE_CART_KEY" default:"cart"`
	TokenKey        string `envconfig:"STOREFRONT_STORAGE_TOKEN_KEY" default:"token"`
	UserKey         string `envconfig:"STOREFRONT_STORAGE_USER_KEY" default:"user"`
	OrderHistoryKey string `envconfig:"STOREFRONT_STORAGE_ORDER_HISTORY_KEY" default:"orderHistory"`
}

type AuthConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_AUTH_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"STOREFRONT_AUTH_TIMEOUT" default:"30s"`
}

type WatcherConfig struct {
	PollInterval time.Duration `envconfig:"STOREFRONT_WATCHER_POLL_INTERVAL" default:"1s"`
}

type MoMoConfig struct {
	BaseURL          string        `envconfig:"STOREFRONT_MOMO_BASE_URL" required:"true"`
	Timeout          time.Duration `envconfig:"STOREFRONT_MOMO_TIMEOUT" default:"15s"`
	RedirectURL      string        `envconfig:"STOREFRONT_MOMO_REDIRECT_URL"`
	IPNURL           string        `envconfig:"STOREFRONT_MOMO_IPN_URL"`
	DefaultOrderInfo string        `envconfig:"STOREFRONT_MOMO_DEFAULT_ORDER_INFO" default:"HarborFresh order"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
