package config

import "time"

// WorkerConfig contains card generation worker configuration.
type WorkerConfig struct {
	// Enabled controls whether this process runs the card generation worker.
	Enabled bool `env:"WORKER_ENABLED" envDefault:"true"`

	// Concurrency is the number of worker goroutines reserving jobs.
	Concurrency int `env:"WORKER_CONCURRENCY" envDefault:"2"`

	// Lease is how long a reserved job is protected from re-delivery.
	// Rendering plus two blob uploads should finish well inside it.
	Lease time.Duration `env:"WORKER_LEASE" envDefault:"60s"`

	// MaxRetries bounds re-execution of a failing job before it is parked
	// as terminally failed.
	MaxRetries int `env:"WORKER_MAX_RETRIES" envDefault:"3"`

	// RetryBackoff is the base delay before the first retry; each subsequent
	// retry doubles it.
	RetryBackoff time.Duration `env:"WORKER_RETRY_BACKOFF" envDefault:"5s"`

	// PollInterval is how often an idle worker re-checks for pending jobs.
	PollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"2s"`
}

// Sanitize applies guardrails to worker configuration values.
func (c *WorkerConfig) Sanitize() {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.Lease < time.Second {
		c.Lease = 60 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 5 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
}
