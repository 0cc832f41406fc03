// Package core defines the repository and collaborator interfaces (hexagonal
// ports) consumed by the service layer. Implementations live in internal/data
// and internal/adapters.
package core

import (
	"context"
	"time"

	"github.com/agrimanage/farmreg/internal/domain/model"
)

// UserRepository provides persistence for account records.
type UserRepository interface {
	// FindByEmail returns the account with the given (lower-cased) email.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// Create inserts a new account. Duplicate emails yield a Conflict error.
	Create(ctx context.Context, user *model.User) (*model.User, error)
	// UpdateLastLogin stamps the account's last successful login time.
	UpdateLastLogin(ctx context.Context, email string, at time.Time) error
	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// FarmerRepository provides the identity/card slice of farmer records.
type FarmerRepository interface {
	// FindByNRC returns the farmer registered under the given NRC.
	FindByNRC(ctx context.Context, nrc string) (*model.Farmer, error)
	// FindByID returns the farmer with the given farmer id.
	FindByID(ctx context.Context, farmerID string) (*model.Farmer, error)
	// SetCardArtifacts atomically updates the farmer's card pointer pair and
	// generation timestamp, guarded by the expected card version. It returns
	// false without error when the version check rejects a stale writer.
	SetCardArtifacts(ctx context.Context, params SetCardArtifactsParams) (bool, error)
}

// SetCardArtifactsParams groups the single mutation that makes a card
// generation "current". Both pointers move together or not at all.
type SetCardArtifactsParams struct {
	FarmerID        string
	CardBlobID      string
	QRBlobID        string
	GeneratedAt     time.Time
	ExpectedVersion int64
}

// JobRepository provides the card generation queue. Delivery is at least
// once: reservations take a lease, and jobs whose lease expired are handed to
// the next caller.
type JobRepository interface {
	// Enqueue inserts a pending job for the farmer and returns it.
	Enqueue(ctx context.Context, farmerID string, maxRetries int) (*model.CardJob, error)
	// ReserveNext reserves the next due pending job under the given lease,
	// marking it running. Returns model.ErrNoJobsAvailable when the queue is
	// empty.
	ReserveNext(ctx context.Context, lease time.Duration) (*model.CardJob, error)
	// Complete marks a running job completed. Returns false if the job was
	// not in a completable state (e.g., its lease expired and it was re-run).
	Complete(ctx context.Context, id string) (bool, error)
	// Fail records an execution error. Jobs with retries remaining return to
	// pending with the given backoff delay; exhausted jobs become terminally
	// failed.
	Fail(ctx context.Context, id, errMsg string, retryDelay time.Duration) (*model.CardJob, error)
	// FailTerminal marks a job failed immediately, bypassing remaining
	// retries. Used for permanent errors such as a missing farmer record.
	FailTerminal(ctx context.Context, id, errMsg string) (*model.CardJob, error)
	// GetByID returns a job for status polling.
	GetByID(ctx context.Context, id string) (*model.CardJob, error)
}

// BlobRepository stores and retrieves binary artifacts by opaque id.
type BlobRepository interface {
	Upload(ctx context.Context, blob *model.Blob) (string, error)
	Get(ctx context.Context, id string) (*model.Blob, error)
}

// LoginThrottle counts failed login attempts per identifier. Implementations
// must be safe for concurrent use; the no-op implementation disables
// throttling.
type LoginThrottle interface {
	// Blocked reports whether the identifier has exceeded the attempt budget.
	Blocked(ctx context.Context, identifier string) (bool, error)
	// RecordFailure counts a failed attempt.
	RecordFailure(ctx context.Context, identifier string) error
	// Reset clears the counter after a successful login.
	Reset(ctx context.Context, identifier string) error
}

// CardRenderer renders the physical card artifacts into memory.
type CardRenderer interface {
	// RenderQR encodes the signed payload into a QR PNG.
	RenderQR(payload []byte) ([]byte, error)
	// RenderCard renders the two-sided ID card PDF.
	RenderCard(input RenderCardInput) ([]byte, error)
}

// RenderCardInput carries everything the PDF layout needs.
type RenderCardInput struct {
	Farmer   *model.Farmer
	QRPNG    []byte
	Photo    []byte // optional; placeholder drawn when empty
	IssuedAt time.Time
}
