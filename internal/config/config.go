// Package config reads process configuration from the environment. A .env
// file in the working directory, when present, fills in variables that are
// not already set.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL     = "http://127.0.0.1:8000"
	DefaultTimeout    = 5 * time.Second
	DefaultKafkaTopic = "storefront-activity"
	minSecretLength   = 32
)

var ErrMissingSecret = errors.New("JWT_SECRET environment variable is required")

// Client configures the storefront CLI.
type Client struct {
	APIURL       string
	Timeout      time.Duration
	SessionFile  string
	KafkaBrokers []string
	KafkaTopic   string
}

// Server configures the development API server.
type Server struct {
	Addr            string
	DatabaseURL     string // empty means the in-memory store
	JWTSecret       string
	TokenExpiry     time.Duration
	ShutdownTimeout time.Duration
	Seed            bool
}

// Notifier configures the email notifier.
type Notifier struct {
	KafkaBrokers  []string
	KafkaTopic    string
	ConsumerGroup string
	SMTPHost      string
	SMTPPort      string
	SMTPFrom      string
	// StockAlertTo receives an email for every failed stock decrement.
	StockAlertTo string
}

// LoadDotEnv reads files (default ".env") without overriding variables
// already in the environment. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

func LoadClient() (Client, error) {
	timeout, err := getDuration("STOREFRONT_TIMEOUT", DefaultTimeout)
	if err != nil {
		return Client{}, err
	}
	return Client{
		APIURL:       strings.TrimRight(getEnv("STOREFRONT_API_URL", DefaultAPIURL), "/"),
		Timeout:      timeout,
		SessionFile:  getEnv("STOREFRONT_SESSION_FILE", defaultSessionFile()),
		KafkaBrokers: getList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", DefaultKafkaTopic),
	}, nil
}

func LoadServer() (Server, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Server{}, ErrMissingSecret
	}
	if len(secret) < minSecretLength {
		return Server{}, fmt.Errorf("JWT_SECRET must be at least %d characters long", minSecretLength)
	}
	expiry, err := getDuration("TOKEN_EXPIRY", 24*time.Hour)
	if err != nil {
		return Server{}, err
	}
	shutdown, err := getDuration("SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return Server{}, err
	}
	seed, err := getBool("SEED_DEMO_DATA", true)
	if err != nil {
		return Server{}, err
	}
	return Server{
		Addr:            getEnv("API_ADDR", ":8000"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       secret,
		TokenExpiry:     expiry,
		ShutdownTimeout: shutdown,
		Seed:            seed,
	}, nil
}

func LoadNotifier() Notifier {
	brokers := getList("KAFKA_BROKERS")
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}
	return Notifier{
		KafkaBrokers:  brokers,
		KafkaTopic:    getEnv("KAFKA_TOPIC", DefaultKafkaTopic),
		ConsumerGroup: getEnv("KAFKA_GROUP", "email-notifier"),
		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "1025"),
		SMTPFrom:      getEnv("SMTP_FROM", "noreply@example.com"),
		StockAlertTo:  os.Getenv("STOCK_ALERT_EMAIL"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getDuration accepts a Go duration ("1500ms") or a whole number of seconds.
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if seconds, aerr := strconv.Atoi(v); aerr == nil {
		d, err = time.Duration(seconds)*time.Second, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", key, err)
	}
	return b, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".storefront-session"
	}
	return filepath.Join(dir, "storefront", "session")
}
