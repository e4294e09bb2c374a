package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "splitbite"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Outbox       OutboxConfig
	PubSub       PubSubConfig
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
	Env          string `envconfig:"SPLITBITE_APP_ENV" required:"true"`
	Port         string `envconfig:"SPLITBITE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SPLITBITE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SPLITBITE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"SPLITBITE_DB_DSN"`

	Host     string `envconfig:"SPLITBITE_DB_HOST"`
	Port     int    `envconfig:"SPLITBITE_DB_PORT" default:"5432"`
	User     string `envconfig:"SPLITBITE_DB_USER"`
	Password string `envconfig:"SPLITBITE_DB_PASSWORD"`
	Name     string `envconfig:"SPLITBITE_DB_NAME"`
	SSLMode  string `envconfig:"SPLITBITE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SPLITBITE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SPLITBITE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SPLITBITE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SPLITBITE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SPLITBITE_REDIS_URL"`
	Address      string        `envconfig:"SPLITBITE_REDIS_ADDR"`
	Password     string        `envconfig:"SPLITBITE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SPLITBITE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SPLITBITE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SPLITBITE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SPLITBITE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SPLITBITE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SPLITBITE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SPLITBITE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SPLITBITE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SPLITBITE_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"SPLITBITE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SPLITBITE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SPLITBITE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SPLITBITE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SPLITBITE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SPLITBITE_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SPLITBITE_AUTO_MIGRATE" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SPLITBITE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SPLITBITE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SPLITBITE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type PubSubConfig struct {
	ProjectID   string `envconfig:"SPLITBITE_GCP_PROJECT_ID"`
	OrdersTopic string `envconfig:"SPLITBITE_PUBSUB_ORDERS_TOPIC" default:"sb-order-events"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"SPLITBITE_DB_HOST": db.Host,
		"SPLITBITE_DB_USER": db.User,
		"SPLITBITE_DB_NAME": db.Name,
	}
	for _, key := range []string{"SPLITBITE_DB_HOST", "SPLITBITE_DB_USER", "SPLITBITE_DB_NAME"} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either SPLITBITE_DB_DSN or %s are required", strings.Join(missing, ", "))
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
