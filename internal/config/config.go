package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// MQTTConfig broker connection settings for the readings ingest path.
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// Config verdantia-data service configuration.
type Config struct {
	HTTP struct {
		Addr string
	}

	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	// Predictor is the external model server that returns forecasts,
	// anomaly summaries and trigger recommendations.
	Predictor struct {
		Addr    string
		Timeout time.Duration
	}

	MQTT MQTTConfig

	// Telemetry knobs for the ingestion pipeline.
	Telemetry struct {
		// PartitionTZ is the single global time zone used for day/month
		// partition boundaries. Global, not per-sector, so windows stay
		// comparable across sectors.
		PartitionTZ string
		WindowSize  int
		GracePeriod time.Duration
	}

	Liveness struct {
		Timeout       time.Duration
		SweepInterval time.Duration
	}

	Reminder struct {
		SweepInterval time.Duration
	}

	Log struct {
		Level  string
		Format string
	}
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "verdantia")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Predictor.Addr = getEnv("PREDICTOR_ADDR", "http://127.0.0.1:5000")
	cfg.Predictor.Timeout = time.Duration(parseInt(getEnv("PREDICTOR_TIMEOUT_SEC", "30"), 30)) * time.Second

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "verdantia-data-ingest")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "verdantia/readings")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))

	cfg.Telemetry.PartitionTZ = getEnv("PARTITION_TZ", "Asia/Kuala_Lumpur")
	cfg.Telemetry.WindowSize = parseInt(getEnv("WINDOW_SIZE", "100"), 100)
	cfg.Telemetry.GracePeriod = time.Duration(parseInt(getEnv("GRACE_PERIOD_HOURS", "24"), 24)) * time.Hour

	cfg.Liveness.Timeout = time.Duration(parseInt(getEnv("LIVENESS_TIMEOUT_MIN", "30"), 30)) * time.Minute
	cfg.Liveness.SweepInterval = time.Duration(parseInt(getEnv("LIVENESS_SWEEP_MIN", "60"), 60)) * time.Minute

	cfg.Reminder.SweepInterval = time.Duration(parseInt(getEnv("REMINDER_SWEEP_HOURS", "24"), 24)) * time.Hour

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

// GetDSN builds the Postgres connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password,
		c.Database.Database, c.Database.SSLMode)
}

// PartitionLocation resolves the global partition time zone. Resolved once
// at startup; the location is immutable afterwards.
func (c *Config) PartitionLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Telemetry.PartitionTZ)
	if err != nil {
		return nil, fmt.Errorf("invalid PARTITION_TZ %q: %w", c.Telemetry.PartitionTZ, err)
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
