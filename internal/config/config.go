package config

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config структура конфигурации
type Config struct {
	AppEnv       string `env:"APP_ENV" envDefault:"production"`
	Port         string `env:"PORT" envDefault:"8080"`
	RealtimePort string `env:"REALTIME_PORT" envDefault:"8081"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret   string `env:"SUPABASE_JWT_SECRET,required,notEmpty"`
	JWTAudience string `env:"SUPABASE_JWT_AUDIENCE" envDefault:"authenticated"`

	DatabaseURL    string `env:"DATABASE_URL"`
	DatabaseConfig DatabaseConfig
	RunMigrations  bool `env:"RUN_MIGRATIONS" envDefault:"true"`

	RedisURL     string   `env:"REDIS_URL"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"barterhub.exchanges"`

	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
	MessageMaxLength int      `env:"MESSAGE_MAX_LENGTH" envDefault:"2000"`
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string `env:"PGHOST" envDefault:"localhost"`
	Port     string `env:"PGPORT" envDefault:"5432"`
	User     string `env:"PGUSER" envDefault:"barterhub_user"`
	Password string `env:"PGPASSWORD" envDefault:"barterhub_pass"`
	Name     string `env:"PGDATABASE" envDefault:"barterhub"`
	SSLMode  string `env:"PGSSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns int32  `env:"DB_MIN_CONNS" envDefault:"2"`
}

// Load загружает переменные из .env и окружения
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.MessageMaxLength <= 0 {
		return nil, fmt.Errorf("MESSAGE_MAX_LENGTH must be positive, got %d", cfg.MessageMaxLength)
	}

	return cfg, nil
}

// DSN возвращает строку подключения к базе данных
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}

	db := c.DatabaseConfig
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		db.User, db.Password, db.Host, db.Port, db.Name, db.SSLMode)
}

// IsDevelopment сообщает, запущено ли приложение локально
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
