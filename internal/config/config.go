// Package config defines service configuration structures and loading
// hooks.
package config

import (
	"context"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL is the Postgres connection string. The database
	// needs the PostGIS extension.
	DatabaseURL string `koanf:"database_url"`

	// GoogleAPIKey authenticates against the Places API.
	GoogleAPIKey string `koanf:"google_api_key"`

	// GoogleBaseURL overrides the Places API host, mainly for tests.
	GoogleBaseURL string `koanf:"google_base_url"`

	// EventbriteToken authenticates against the Eventbrite API.
	EventbriteToken string `koanf:"eventbrite_token"`

	// EventbriteBaseURL overrides the Eventbrite API host.
	EventbriteBaseURL string `koanf:"eventbrite_base_url"`

	// ProviderTimeout bounds each outbound provider request.
	ProviderTimeout time.Duration `koanf:"provider_timeout"`

	// ProviderRateLimit and ProviderBurst throttle outbound requests
	// per provider.
	ProviderRateLimit float64 `koanf:"provider_rate_limit"`
	ProviderBurst     int     `koanf:"provider_burst"`

	// QueueSize bounds the in-memory write-back queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of write-back workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the write-back suppression cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Default search radii in meters.
	NearbyRadius float64 `koanf:"nearby_radius"`
	TextRadius   float64 `koanf:"text_radius"`
	EventRadius  float64 `koanf:"event_radius"`

	// EventsCacheWindow is how long cached events stay fresh.
	EventsCacheWindow time.Duration `koanf:"events_cache_window"`

	// MaxPhotoWidth caps the width forwarded to the photo proxy.
	MaxPhotoWidth int `koanf:"max_photo_width"`
}

// New creates a Config with production defaults. Context is accepted
// first to satisfy the project-wide convention; it is reserved for
// future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":8080",
		ProviderTimeout:   10 * time.Second,
		ProviderRateLimit: 10,
		ProviderBurst:     20,
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        50_000,
		NearbyRadius:      1000,
		TextRadius:        5000,
		EventRadius:       10_000,
		EventsCacheWindow: 24 * time.Hour,
		MaxPhotoWidth:     800,
	}
}
