package model

import "time"

// Farmer is the slice of the farmer registration record the identity and card
// subsystems touch. Registration business fields (crops, household data) live
// outside this service.
type Farmer struct {
	FarmerID    string `json:"farmer_id"    db:"farmer_id"`
	NRC         string `json:"nrc"          db:"nrc"`
	FirstName   string `json:"first_name"   db:"first_name"`
	LastName    string `json:"last_name"    db:"last_name"`
	// DateOfBirth is the stored YYYY-MM-DD string farmers present as their
	// login secret. Compared verbatim, never parsed.
	DateOfBirth string `json:"date_of_birth" db:"date_of_birth"`
	Gender      string `json:"gender"        db:"gender"`
	Phone       string `json:"phone"         db:"phone"`
	Village     string `json:"village"       db:"village"`
	District    string `json:"district"      db:"district"`
	Province    string `json:"province"      db:"province"`
	PhotoBlobID string `json:"photo_blob_id,omitempty" db:"photo_blob_id"`
	Active      bool   `json:"is_active"     db:"is_active"`

	// Current card artifact pointers. CardBlobID and QRBlobID always refer to
	// artifacts produced by the same generation run; SetCardArtifacts updates
	// them together or not at all.
	CardBlobID      string     `json:"card_blob_id,omitempty"      db:"card_blob_id"`
	QRBlobID        string     `json:"qr_blob_id,omitempty"        db:"qr_blob_id"`
	CardGeneratedAt *time.Time `json:"card_generated_at,omitempty" db:"card_generated_at"`
	// CardVersion increments on every successful pointer update; stale
	// concurrent generation runs are rejected by the optimistic check.
	CardVersion int64 `json:"-" db:"card_version"`
	// LegacyCardPath is a pre-blob-store filesystem path on old records. Read
	// path only; new generations always write blobs.
	LegacyCardPath string `json:"-" db:"legacy_card_path"`

	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FullName returns the display name rendered on the card.
func (f *Farmer) FullName() string {
	switch {
	case f.FirstName == "":
		return f.LastName
	case f.LastName == "":
		return f.FirstName
	default:
		return f.FirstName + " " + f.LastName
	}
}
