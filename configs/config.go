package configs

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Security SecurityConfig
	Email    EmailConfig
	Redis    RedisConfig
	Log      LogConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port         string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	TLSCertFile  string        `env:"TLS_CERT_FILE"`
	TLSKeyFile   string        `env:"TLS_KEY_FILE"`
	Environment  string        `env:"ENVIRONMENT" envDefault:"development"`
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName   string `env:"DB_NAME" envDefault:"accounts"`
	SSLMode  string `env:"DB_SSL_MODE" envDefault:"disable"`
	// DSN overrides the individual connection fields when set.
	DSN            string `env:"DATABASE_URL"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./migrations"`
	// Connection pool settings
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m"`
}

type JWTConfig struct {
	Secret          string        `env:"JWT_SECRET,required,notEmpty"`
	AccessTokenTTL  time.Duration `env:"JWT_EXPIRATION" envDefault:"1h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_EXPIRATION" envDefault:"168h"`
}

// SecurityConfig holds the login lockout policy and hashing cost.
type SecurityConfig struct {
	MaxLoginAttempts int           `env:"MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	BlockDuration    time.Duration `env:"BLOCK_TIME" envDefault:"15m"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"10"`
}

type EmailConfig struct {
	SendGridAPIKey string `env:"SENDGRID_API_KEY,required,notEmpty"`
	FromEmail      string `env:"EMAIL_FROM" envDefault:"noreply@example.com"`
	FromName       string `env:"EMAIL_FROM_NAME" envDefault:"My App"`
	// ResetBaseURL prefixes the reset-password link mailed to users.
	ResetBaseURL string `env:"EMAIL_RESET_URL,required,notEmpty"`
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	// ClusterAddrs switches to a cluster client when non-empty.
	ClusterAddrs []string `env:"REDIS_CLUSTER_ADDRS" envSeparator:","`
	// Pool and timeout settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	PoolTimeout  time.Duration `env:"REDIS_POOL_TIMEOUT" envDefault:"4s"`
	IdleTimeout  time.Duration `env:"REDIS_IDLE_TIMEOUT" envDefault:"5m"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json or text
}

// CacheConfig controls the read-through account cache.
type CacheConfig struct {
	Enabled bool          `env:"ACCOUNT_CACHE_ENABLED" envDefault:"true"`
	TTL     time.Duration `env:"ACCOUNT_CACHE_TTL" envDefault:"3m"`
	Prefix  string        `env:"ACCOUNT_CACHE_PREFIX" envDefault:"accountcache"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Build database DSN
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.DBName,
			cfg.Database.SSLMode,
		)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Security.MaxLoginAttempts <= 0 {
		return fmt.Errorf("MAX_LOGIN_ATTEMPTS must be a positive number")
	}
	if c.Security.BlockDuration <= 0 {
		return fmt.Errorf("BLOCK_TIME must be a positive duration")
	}
	if c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive durations")
	}
	return nil
}
