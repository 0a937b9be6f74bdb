package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the storefront process configuration, sourced from
// environment variables.
type Config struct {
	// APIBaseURL is the origin of the remote store backend.
	APIBaseURL string
	// ListenAddr is the local address the storefront HTTP surface binds to.
	ListenAddr string
	// PublicURL is the externally reachable origin of this storefront,
	// embedded in payment success/cancel callback URLs.
	PublicURL string
	// TokenFile is the durable location of the bearer token (the single
	// persistent key this client owns).
	TokenFile string
	// Brokers optionally enables the kafka cart-changed relay between
	// storefront processes. Empty means in-process signalling only.
	Brokers []string
	// RelayTopic is the kafka topic used by the relay.
	RelayTopic string

	// ReadTimeout bounds interactive reads (cart, profile, orders).
	ReadTimeout time.Duration
	// MutationTimeout bounds workflow mutations (checkout create,
	// order materialization).
	MutationTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL:      getEnv("STOREFRONT_API_URL", "http://localhost:5050"),
		ListenAddr:      getEnv("STOREFRONT_ADDR", ":3000"),
		PublicURL:       getEnv("STOREFRONT_PUBLIC_URL", "http://localhost:3000"),
		TokenFile:       getEnv("STOREFRONT_TOKEN_FILE", defaultTokenFile()),
		RelayTopic:      getEnv("STOREFRONT_RELAY_TOPIC", "storefront-cart-events"),
		ReadTimeout:     3 * time.Second,
		MutationTimeout: 15 * time.Second,
	}

	if brokers := os.Getenv("STOREFRONT_BROKERS"); brokers != "" {
		cfg.Brokers = strings.Split(brokers, ",")
	}

	if d, err := parseDuration("STOREFRONT_READ_TIMEOUT"); err != nil {
		return nil, err
	} else if d > 0 {
		cfg.ReadTimeout = d
	}
	if d, err := parseDuration("STOREFRONT_MUTATION_TIMEOUT"); err != nil {
		return nil, err
	} else if d > 0 {
		cfg.MutationTimeout = d
	}

	if !strings.HasPrefix(cfg.APIBaseURL, "http://") && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		return nil, fmt.Errorf("STOREFRONT_API_URL must be an http(s) origin, got %q", cfg.APIBaseURL)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storefront-token"
	}
	return filepath.Join(home, ".storefront", "token")
}
