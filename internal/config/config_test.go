package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 256, cfg.EventBufferSize)
	assert.Equal(t, "booth_events", cfg.RabbitMQExchange)
	assert.Contains(t, cfg.DSN(), "dbname=boothpos")
	assert.False(t, cfg.IsProd())
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "port: \"9000\"\n" +
		"jwt_secret: from-yaml\n" +
		"kafka_brokers: [\"k1:9092\"]\n" +
		"event_buffer_size: 16\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "9100")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	//環境変数が勝つ
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "from-yaml", cfg.JWTSecret)
	assert.Equal(t, []string{"k1:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 16, cfg.EventBufferSize)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidNumber(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("EVENT_BUFFER_SIZE", "many")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN_DatabaseURLWins(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://u:p@h/db"}
	assert.Equal(t, "postgres://u:p@h/db", cfg.DSN())
}
