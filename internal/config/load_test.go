package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	tempConfigsSubDir := filepath.Join(tempDir, "configs")
	err = os.Mkdir(tempConfigsSubDir, 0755)
	require.NoError(t, err)

	testAppName := "TestApp"
	testPort := 9090
	testLogLevel := "debug"
	testPostgresURL := "postgres://u:p@db:5432/stocky_test"

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nPOSTGRES_URL=%s\n",
		testAppName, testPort, testLogLevel, testPostgresURL,
	)
	envFilePath := filepath.Join(tempConfigsSubDir, "test_happy.env")
	err = os.WriteFile(envFilePath, []byte(envContent), 0644)
	require.NoError(t, err)

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	err = os.Chdir(tempDir)
	require.NoError(t, err)

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, testAppName, cfg.Application.Name)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, testLogLevel, cfg.Logging.Level)
	assert.Equal(t, testPostgresURL, cfg.Postgres.URL)

	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "reward_events", cfg.Kafka.RewardTopic)
	assert.Equal(t, 10, cfg.Snapshot.WorkerPoolSize)
	assert.Equal(t, []string{"RELIANCE", "TCS", "INFY"}, cfg.PriceIngest.Symbols)

	cfgWithName, err := LoadConfigWithName("configs/test_happy") // Viper will look for configs/test_happy.env
	require.NoError(t, err)
	require.NotNil(t, cfgWithName)
	assert.Equal(t, testAppName, cfgWithName.Application.Name)

	// Test LoadConfigWithNameAndType
	cfgWithNameAndType, err := LoadConfigWithNameAndType("configs/test_happy", "env")
	require.NoError(t, err)
	require.NotNil(t, cfgWithNameAndType)
	assert.Equal(t, testAppName, cfgWithNameAndType.Application.Name)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{
				Port:            4000,
				ShutdownTimeout: 30 * time.Second,
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    30 * time.Second,
				IdleTimeout:     time.Minute,
			},
			Postgres: PostgresConfig{
				URL:             "postgres://localhost:5432/stocky",
				MaxConns:        20,
				MinConns:        5,
				ConnMaxLifetime: time.Hour,
				ConnMaxIdleTime: 30 * time.Minute,
			},
			Snapshot: SnapshotConfig{WorkerPoolSize: 10, PriceStaleness: time.Hour},
			PriceIngest: PriceIngestConfig{
				Symbols:     []string{"TCS"},
				MinPriceINR: 2000,
				MaxPriceINR: 3000,
			},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid().validate())
	})

	t.Run("missing postgres url", func(t *testing.T) {
		cfg := valid()
		cfg.Postgres.URL = ""
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "POSTGRES_URL")
	})

	t.Run("kafka validated only when enabled", func(t *testing.T) {
		cfg := valid()
		cfg.Kafka.Enabled = false
		assert.NoError(t, cfg.validate())

		cfg.Kafka.Enabled = true
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "KAFKA_BROKERS")
	})

	t.Run("inverted price band", func(t *testing.T) {
		cfg := valid()
		cfg.PriceIngest.MinPriceINR = 3000
		cfg.PriceIngest.MaxPriceINR = 2000
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "price band")
	})
}
