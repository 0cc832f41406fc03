package model

import "time"

// BlobKind identifies which card artifact a blob holds.
type BlobKind string

const (
	// BlobKindPDF is the rendered two-sided ID card document.
	BlobKindPDF BlobKind = "pdf"
	// BlobKindQRImage is the QR code PNG embedded in the card.
	BlobKindQRImage BlobKind = "qr_image"
)

// ContentType returns the MIME type served for this blob kind.
func (k BlobKind) ContentType() string {
	if k == BlobKindQRImage {
		return "image/png"
	}
	return "application/pdf"
}

// Blob is a stored binary artifact addressed by an opaque id.
type Blob struct {
	ID          string    `json:"id"           db:"id"`
	FarmerID    string    `json:"farmer_id"    db:"farmer_id"`
	Kind        BlobKind  `json:"kind"         db:"kind"`
	Filename    string    `json:"filename"     db:"filename"`
	ContentType string    `json:"content_type" db:"content_type"`
	Data        []byte    `json:"-"            db:"data"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
}
