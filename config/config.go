package config

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: token signing, QR secret, and login throttle configuration
//   - database.go: database and redis configuration
//   - http.go: HTTP server configuration
//   - worker.go: card generation worker configuration
type AppConfig struct {
	// IsDev controls development mode behavior (debug logging, seeding).
	IsDev bool `env:"DEV" envDefault:"false"`

	// Auth configuration (JWT, QR signing, login throttle).
	Auth AuthConfig

	// Database configuration.
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration.
	HTTP HTTPConfig

	// Card generation worker configuration.
	Worker WorkerConfig

	// Seed holds optional bootstrap admin credentials.
	Seed SeedConfig `envPrefix:"SEED_"`
}

// SeedConfig holds the optional first-run admin account. When both fields are
// set, bootstrap creates the account if it does not already exist.
type SeedConfig struct {
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Worker.Sanitize()
	c.Auth.Sanitize()
}
