package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration. A YAML file, when given, provides the base
// values; environment variables that are set override it.
type Config struct {
	Port            string        `yaml:"port"`
	DocstoreURL     string        `yaml:"docstore_url"`
	DocstoreAuth    string        `yaml:"docstore_auth"`
	DocstoreTimeout time.Duration `yaml:"docstore_timeout"`
	JWTSecret       string        `yaml:"jwt_secret"`
	AMQPURL         string        `yaml:"amqp_url"`
	AMQPExchange    string        `yaml:"amqp_exchange"`
	OTLPEndpoint    string        `yaml:"otlp_endpoint"`
	Environment     string        `yaml:"environment"`
	MessagePageSize int           `yaml:"message_page_size"`
}

// Default returns the values used when neither file nor environment set a field.
func Default() Config {
	return Config{
		Port:            "8083",
		DocstoreTimeout: 30 * time.Second,
		AMQPExchange:    "social.events",
		Environment:     "local",
		MessagePageSize: 80,
	}
}

// Load builds the configuration from path (optional) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DocstoreURL = getEnv("DOCSTORE_URL", cfg.DocstoreURL)
	cfg.DocstoreAuth = getEnv("DOCSTORE_AUTH", cfg.DocstoreAuth)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.Environment = getEnv("SERVICE_ENV", cfg.Environment)

	if raw, ok := os.LookupEnv("DOCSTORE_TIMEOUT"); ok {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("DOCSTORE_TIMEOUT: %w", err)
		}
		cfg.DocstoreTimeout = timeout
	}
	if raw, ok := os.LookupEnv("MESSAGE_PAGE_SIZE"); ok {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("MESSAGE_PAGE_SIZE: %w", err)
		}
		cfg.MessagePageSize = size
	}

	if cfg.MessagePageSize <= 0 {
		return Config{}, fmt.Errorf("message page size must be positive, got %d", cfg.MessagePageSize)
	}
	if cfg.DocstoreTimeout <= 0 {
		return Config{}, fmt.Errorf("docstore timeout must be positive, got %s", cfg.DocstoreTimeout)
	}
	return cfg, nil
}

// UsesMemoryStore reports whether no remote document store is configured.
func (c Config) UsesMemoryStore() bool {
	return c.DocstoreURL == ""
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
