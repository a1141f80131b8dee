// Пакет config собирает настройки сервисов из окружения и файла .env
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config содержит настройки HTTP-сервиса и консьюмера событий
type Config struct {
	Environment   string        `mapstructure:"ENVIRONMENT"`
	HTTPAddr      string        `mapstructure:"HTTP_ADDR"`
	DBHost        string        `mapstructure:"DB_HOST"`
	DBPort        string        `mapstructure:"DB_PORT"`
	DBUser        string        `mapstructure:"DB_USER"`
	DBPassword    string        `mapstructure:"DB_PASSWORD"`
	DBName        string        `mapstructure:"DB_NAME"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisTTL      time.Duration `mapstructure:"REDIS_TTL"`
	NATSURL       string        `mapstructure:"NATS_URL"`
	NATSSubject   string        `mapstructure:"NATS_SUBJECT"`
	ClickhouseDSN string        `mapstructure:"CLICKHOUSE_DSN"`
	BatchSize     int           `mapstructure:"BATCH_SIZE"`
	FlushSchedule string        `mapstructure:"FLUSH_SCHEDULE"`
	ConsumerPort  string        `mapstructure:"CONSUMER_PORT"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	LogDir        string        `mapstructure:"LOG_DIR"`
	MigrationsDir string        `mapstructure:"MIGRATIONS_DIR"`
	TimeZone      string        `mapstructure:"TIME_ZONE"`
}

var defaults = map[string]interface{}{
	"ENVIRONMENT":    "development",
	"HTTP_ADDR":      ":8080",
	"DB_HOST":        "localhost",
	"DB_PORT":        "5432",
	"DB_USER":        "",
	"DB_PASSWORD":    "",
	"DB_NAME":        "appdb",
	"REDIS_ADDR":     "localhost:6379",
	"REDIS_TTL":      "1m",
	"NATS_URL":       "nats://localhost:4222",
	"NATS_SUBJECT":   "tracking.events",
	"CLICKHOUSE_DSN": "",
	"BATCH_SIZE":     10,
	"FLUSH_SCHEDULE": "@every 30s",
	"CONSUMER_PORT":  "8081",
	"JWT_SECRET":     "",
	"LOG_DIR":        "",
	"MIGRATIONS_DIR": "migrations",
	"TIME_ZONE":      "UTC",
}

// Load читает конфигурацию: переменные окружения важнее значений из envFile.
// Отсутствующий envFile не считается ошибкой
func Load(envFile string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("invalid BATCH_SIZE: %d", c.BatchSize)
	}
	if c.RedisTTL <= 0 {
		return fmt.Errorf("invalid REDIS_TTL: %s", c.RedisTTL)
	}
	if c.Environment == "production" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	// имя зоны передаётся в Postgres (AT TIME ZONE), а "Local" там неизвестен
	if strings.EqualFold(c.TimeZone, "Local") {
		return errors.New("TIME_ZONE must be an IANA zone name, not Local")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}
	return nil
}

// PostgresDSN возвращает строку подключения к Postgres; сессия работает в UTC
func (c Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable&TimeZone=UTC",
	}
	return u.String()
}

// Location возвращает часовой пояс для границ суток в статистике
func (c Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.TimeZone)
}

// IsProduction сообщает, запущен ли сервис в боевом окружении
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
