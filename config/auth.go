package config

import "time"

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// JWTSigningKey is the HMAC key used to sign access and refresh tokens.
	// Required in all environments.
	JWTSigningKey string `env:"JWT_SIGNING_KEY,required"`

	// Audience is the fixed audience claim stamped into every token and
	// required back on decode.
	Audience string `env:"JWT_AUDIENCE" envDefault:"zambian_farmer_system"`

	// AccessTTL is the lifetime of access tokens.
	AccessTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`

	// RefreshTTL is the lifetime of refresh tokens.
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	// QRSecretKey signs QR card payloads. Deliberately distinct from the JWT
	// key so scanned cards stay verifiable across token key rotation.
	QRSecretKey string `env:"QR_SECRET_KEY,required"`

	// Throttle configures the redis-backed failed-login lockout.
	Throttle ThrottleConfig `envPrefix:"LOGIN_THROTTLE_"`
}

// ThrottleConfig controls the failed-login attempt counter. A zero MaxAttempts
// disables throttling entirely.
type ThrottleConfig struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"10"`
	Window      time.Duration `env:"WINDOW"       envDefault:"15m"`
}

// Sanitize applies guardrails to auth configuration values.
func (c *AuthConfig) Sanitize() {
	if c.AccessTTL <= 0 {
		c.AccessTTL = 30 * time.Minute
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.Throttle.Window <= 0 {
		c.Throttle.Window = 15 * time.Minute
	}
	if c.Throttle.MaxAttempts < 0 {
		c.Throttle.MaxAttempts = 0
	}
}
