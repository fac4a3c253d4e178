package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Todo constraints
	MinTextLength int
	MaxTextLength int

	// Session constraints
	SessionIdleTimeout time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MinTextLength:      1,
		MaxTextLength:      100,
		SessionIdleTimeout: 30 * time.Minute,
	}
}
