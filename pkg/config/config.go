package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is intentionally empty: every field names its variable in
	// full so grepping for OUTLETHUB_ finds the authoritative list here.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "OUTLETHUB_DB_DSN"
	EnvDBHost = "OUTLETHUB_DB_HOST"
	EnvDBUser = "OUTLETHUB_DB_USER"
	EnvDBName = "OUTLETHUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Paystack      PaystackConfig
	Orders        OrdersConfig
	Frontend      FrontendConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OUTLETHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"OUTLETHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OUTLETHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OUTLETHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"OUTLETHUB_DB_DSN"`
	Driver string `envconfig:"OUTLETHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OUTLETHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"OUTLETHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OUTLETHUB_DB_USER"`
	LegacyPassword string `envconfig:"OUTLETHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"OUTLETHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"OUTLETHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OUTLETHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OUTLETHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OUTLETHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OUTLETHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OUTLETHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"OUTLETHUB_REDIS_ADDR"`
	Password     string        `envconfig:"OUTLETHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"OUTLETHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OUTLETHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OUTLETHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OUTLETHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OUTLETHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OUTLETHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"OUTLETHUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"OUTLETHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"OUTLETHUB_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"OUTLETHUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"OUTLETHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"OUTLETHUB_ARGON_TIME" default:"1"`
	ArgonParallelism int `envconfig:"OUTLETHUB_ARGON_PARALLELISM" default:"4"`
	ArgonSaltLen     int `envconfig:"OUTLETHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"OUTLETHUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"OUTLETHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"5m"`
	LoginEmailLimit    int           `envconfig:"OUTLETHUB_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"10"`
	LoginIPLimit       int           `envconfig:"OUTLETHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"30"`
	RegisterWindow     time.Duration `envconfig:"OUTLETHUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"OUTLETHUB_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"OUTLETHUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type PaystackConfig struct {
	SecretKey       string        `envconfig:"OUTLETHUB_PAYSTACK_SECRET_KEY"`
	WebhookSecret   string        `envconfig:"OUTLETHUB_PAYSTACK_WEBHOOK_SECRET"`
	BaseURL         string        `envconfig:"OUTLETHUB_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Timeout         time.Duration `envconfig:"OUTLETHUB_PAYSTACK_TIMEOUT" default:"15s"`
	WebhookEventTTL time.Duration `envconfig:"OUTLETHUB_PAYSTACK_WEBHOOK_EVENT_TTL" default:"720h"`
}

type OrdersConfig struct {
	DeliveryFeeCents int64  `envconfig:"OUTLETHUB_ORDERS_DELIVERY_FEE_CENTS" default:"1500"`
	Currency         string `envconfig:"OUTLETHUB_ORDERS_CURRENCY" default:"GHS"`
}

type FrontendConfig struct {
	BaseURL string `envconfig:"OUTLETHUB_FRONTEND_BASE_URL" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"OUTLETHUB_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
