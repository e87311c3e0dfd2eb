package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Session      SessionConfig
	Checkout     CheckoutConfig
	Seed         SeedConfig
	FeatureFlags FeatureFlagsConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FREESTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"FREESTORE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FREESTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FREESTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"FREESTORE_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"FREESTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FREESTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FREESTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FREESTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FREESTORE_REDIS_URL"`
	Address      string        `envconfig:"FREESTORE_REDIS_ADDR"`
	Password     string        `envconfig:"FREESTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FREESTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FREESTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FREESTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FREESTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FREESTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FREESTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FREESTORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FREESTORE_JWT_ISSUER" default:"freestore"`
	ExpirationMinutes      int    `envconfig:"FREESTORE_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"FREESTORE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FREESTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FREESTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FREESTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FREESTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FREESTORE_ARGON_KEY_LEN" default:"32"`
}

// SessionConfig governs the cookie-identified client sessions that hold the
// checkout cart and the enrollment wizard state.
type SessionConfig struct {
	CookieName   string        `envconfig:"FREESTORE_SESSION_COOKIE" default:"freestore_sid"`
	TTL          time.Duration `envconfig:"FREESTORE_SESSION_TTL" default:"12h"`
	CookieSecure bool          `envconfig:"FREESTORE_SESSION_COOKIE_SECURE" default:"false"`
}

type CheckoutConfig struct {
	// Customer identifiers may be a campus email on one of these domains or a
	// 12-digit card number.
	EmailDomains      []string `envconfig:"FREESTORE_CAMPUS_EMAIL_DOMAINS" default:"rowan.edu,students.rowan.edu"`
	ShopfloorLocation string   `envconfig:"FREESTORE_SHOPFLOOR_LOCATION" default:"Shopfloor"`
	RecentOrdersDays  int      `envconfig:"FREESTORE_RECENT_ORDERS_DAYS" default:"30"`
}

type SeedConfig struct {
	DefaultLocations []string `envconfig:"FREESTORE_SEED_LOCATIONS" default:"Shopfloor,Storage"`
	ManagerEmail     string   `envconfig:"FREESTORE_SEED_MANAGER_EMAIL"`
	ManagerPassword  string   `envconfig:"FREESTORE_SEED_MANAGER_PASSWORD"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FREESTORE_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FREESTORE_CORS_ALLOWED_ORIGINS" default:"*"`
}
