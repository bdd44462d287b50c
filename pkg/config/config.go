package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Flags    FlagsConfig
	Stripe   StripeConfig
	Billing  BillingConfig
	OpenAI   OpenAIConfig

	AuthRateLimit AuthRateLimitConfig
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
	Env          string `envconfig:"THANKAROO_APP_ENV" required:"true"`
	Port         string `envconfig:"THANKAROO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"THANKAROO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"THANKAROO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"THANKAROO_DB_DSN"`
	Driver string `envconfig:"THANKAROO_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"THANKAROO_DB_HOST"`
	Port     int    `envconfig:"THANKAROO_DB_PORT" default:"5432"`
	User     string `envconfig:"THANKAROO_DB_USER"`
	Password string `envconfig:"THANKAROO_DB_PASSWORD"`
	Name     string `envconfig:"THANKAROO_DB_NAME"`
	SSLMode  string `envconfig:"THANKAROO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"THANKAROO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"THANKAROO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"THANKAROO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"THANKAROO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"THANKAROO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"THANKAROO_REDIS_ADDR"`
	Password     string        `envconfig:"THANKAROO_REDIS_PASSWORD"`
	DB           int           `envconfig:"THANKAROO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"THANKAROO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"THANKAROO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"THANKAROO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"THANKAROO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"THANKAROO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"THANKAROO_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"THANKAROO_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"THANKAROO_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"THANKAROO_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"THANKAROO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"THANKAROO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"THANKAROO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"THANKAROO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"THANKAROO_ARGON_KEY_LEN" default:"32"`
}

type FlagsConfig struct {
	AutoMigrate bool `envconfig:"THANKAROO_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey string `envconfig:"THANKAROO_STRIPE_API_KEY"`
	Secret string `envconfig:"THANKAROO_STRIPE_SECRET"`
	Env    string `envconfig:"THANKAROO_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type BillingConfig struct {
	CheckoutSuccessURL    string        `envconfig:"THANKAROO_BILLING_CHECKOUT_SUCCESS_URL" default:"https://thankaroo.com/billing/success?session_id={CHECKOUT_SESSION_ID}"`
	CheckoutCancelURL     string        `envconfig:"THANKAROO_BILLING_CHECKOUT_CANCEL_URL" default:"https://thankaroo.com/pricing"`
	PortalReturnURL       string        `envconfig:"THANKAROO_BILLING_PORTAL_RETURN_URL" default:"https://thankaroo.com/account"`
	WebhookIdempotencyTTL time.Duration `envconfig:"THANKAROO_BILLING_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"THANKAROO_AUTH_RL_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit    int           `envconfig:"THANKAROO_AUTH_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"THANKAROO_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"10"`

	RegisterWindow     time.Duration `envconfig:"THANKAROO_AUTH_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"THANKAROO_AUTH_RL_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"THANKAROO_AUTH_RL_REGISTER_EMAIL_LIMIT" default:"5"`
}

type OpenAIConfig struct {
	APIKey string `envconfig:"THANKAROO_OPENAI_API_KEY"`
	Model  string `envconfig:"THANKAROO_OPENAI_MODEL" default:"gpt-4o-mini"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
