package server

import "time"

// Config holds HTTP service settings
type Config struct {
	Addr           string
	RequestTimeout time.Duration
	MaxBodyBytes   int64

	// Circuit breaker settings, applied to each upstream separately
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:               ":8787",
		RequestTimeout:     60 * time.Second,
		MaxBodyBytes:       16 << 20, // a 14M character base64 image plus JSON framing
		BreakerMaxFailures: 5,
		BreakerOpenTimeout: 30 * time.Second,
	}
}
