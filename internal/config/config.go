package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Configはアプリ全体の設定
type Config struct {
	Port string `yaml:"port"` // サーバーポート（8080）

	DatabaseURL      string `yaml:"database_url"`      // あれば最優先
	PostgresUser     string `yaml:"postgres_user"`     // DBユーザー
	PostgresPassword string `yaml:"postgres_password"` // DBパスワード
	PostgresDB       string `yaml:"postgres_db"`       // DB名
	PostgresHost     string `yaml:"postgres_host"`     // DBホスト（localhost）
	PostgresPort     int    `yaml:"postgres_port"`     // DBポート（5432）
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	JWTSecret string `yaml:"jwt_secret"` // JWT署名シークレット

	GoEnv          string   `yaml:"go_env"` // dev/prod
	AllowedOrigins []string `yaml:"allowed_origins"`

	// イベント配信
	EventBufferSize  int      `yaml:"event_buffer_size"`
	KafkaBrokers     []string `yaml:"kafka_brokers"`
	KafkaTopic       string   `yaml:"kafka_topic"`
	RabbitMQURL      string   `yaml:"rabbitmq_url"`
	RabbitMQExchange string   `yaml:"rabbitmq_exchange"`

	// 空ならトレースは出さない
	OTELEndpoint string `yaml:"otel_endpoint"`
}

func defaults() Config {
	return Config{
		Port:             "8080",
		PostgresUser:     "postgres",
		PostgresPassword: "postgres",
		PostgresDB:       "boothpos",
		PostgresHost:     "localhost",
		PostgresPort:     5432,
		PostgresSSLMode:  "disable",
		GoEnv:            "dev",
		EventBufferSize:  256,
		KafkaTopic:       "booth-statistics",
		RabbitMQExchange: "booth_events",
	}
}

// Loadは CONFIG_FILE（yaml）→ 環境変数 の順に上書きする
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.EventBufferSize <= 0 {
		return Config{}, fmt.Errorf("EVENT_BUFFER_SIZE must be positive")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.PostgresUser, "POSTGRES_USER")
	setString(&cfg.PostgresPassword, "POSTGRES_PASSWORD")
	setString(&cfg.PostgresDB, "POSTGRES_DB")
	setString(&cfg.PostgresHost, "POSTGRES_HOST")
	setString(&cfg.PostgresSSLMode, "POSTGRES_SSLMODE")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.GoEnv, "GO_ENV")
	setString(&cfg.KafkaTopic, "KAFKA_TOPIC")
	setString(&cfg.RabbitMQURL, "RABBITMQ_URL")
	setString(&cfg.RabbitMQExchange, "RABBITMQ_EXCHANGE")
	setString(&cfg.OTELEndpoint, "OTEL_ENDPOINT")
	setList(&cfg.KafkaBrokers, "KAFKA_BROKERS")
	setList(&cfg.AllowedOrigins, "ALLOWED_ORIGINS")

	if err := setInt(&cfg.PostgresPort, "POSTGRES_PORT"); err != nil {
		return err
	}
	if err := setInt(&cfg.EventBufferSize, "EVENT_BUFFER_SIZE"); err != nil {
		return err
	}
	return nil
}

// PostgresのDSN
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// カンマ区切り
func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	out := []string{}
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s must be number: %w", key, err)
	}
	*dst = i
	return nil
}
