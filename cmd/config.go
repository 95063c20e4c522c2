package cmd

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrPaymentCredentialsRequired = errors.New(
		"PAYMENT_BASE_URL and PAYMENT_SECRET_KEY are required unless PAYMENT_SANDBOX is set",
	)
	ErrCourierProvidersRequired = errors.New(
		"COURIER_PROVIDERS must list at least one name=baseURL pair",
	)
	ErrCourierProvidersMalformed = errors.New(
		"COURIER_PROVIDERS entries must be name=baseURL pairs",
	)
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr string

	KafkaHost             string
	KafkaOrderEventsTopic string

	PaymentBaseURL   string
	PaymentSecretKey string
	PaymentSandbox   bool

	// CourierProviders is a CSV of name=baseURL pairs, one per provider network.
	CourierProviders    string
	CourierAPIKey       string
	CourierQuoteTimeout time.Duration
	FallbackDeliveryFee int64

	PlatformFeeBps int64

	NotifyBaseURL  string
	ReservationTTL time.Duration

	ExpiryPendingCommitTTL   time.Duration
	ExpiryCollectionTTL      time.Duration
	ExpiryAutoDeliverTTL     time.Duration
	ExpiryAutoDeliverEnabled bool
}

// CourierProvider is one parsed COURIER_PROVIDERS entry.
type CourierProvider struct {
	Name    string
	BaseURL string
}

// Validate rejects configurations the application must not start with.
// Sandbox payment behavior requires the explicit flag; real mode without
// credentials is a startup failure, never a silent fallback.
func (c Config) Validate() error {
	if !c.PaymentSandbox && (c.PaymentBaseURL == "" || c.PaymentSecretKey == "") {
		return ErrPaymentCredentialsRequired
	}

	if _, err := c.ParseCourierProviders(); err != nil {
		return err
	}

	return nil
}

// ParseCourierProviders splits the CSV into provider entries.
func (c Config) ParseCourierProviders() ([]CourierProvider, error) {
	raw := strings.TrimSpace(c.CourierProviders)
	if raw == "" {
		return nil, ErrCourierProvidersRequired
	}

	entries := strings.Split(raw, ",")
	providers := make([]CourierProvider, 0, len(entries))
	for _, entry := range entries {
		name, baseURL, found := strings.Cut(strings.TrimSpace(entry), "=")
		if !found || name == "" || baseURL == "" {
			return nil, ErrCourierProvidersMalformed
		}
		providers = append(providers, CourierProvider{Name: name, BaseURL: baseURL})
	}

	return providers, nil
}
