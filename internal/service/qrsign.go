package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"github.com/agrimanage/farmreg/internal/core"
	"github.com/agrimanage/farmreg/internal/domain/model"
	apperrors "github.com/agrimanage/farmreg/internal/errors"
)

// QRService signs and verifies the tamper-evident payload embedded in card QR
// codes. It is independent of the token service and keyed by its own secret,
// so a scanned card stays verifiable offline and across token key rotation.
//
// The payload carries a timestamp but no enforced freshness window: a printed
// card remains valid until the signing secret changes.
type QRService struct {
	secret  []byte
	farmers core.FarmerRepository
	clock   func() time.Time
}

// QRServiceOptions groups dependencies for QRService.
type QRServiceOptions struct {
	Secret string // Required: HMAC secret, distinct from the JWT signing key
	// Farmers is optional; required only for VerifyAndDescribe.
	Farmers core.FarmerRepository
	Clock   func() time.Time
}

// NewQRService constructs a QRService.
func NewQRService(opts QRServiceOptions) (*QRService, error) {
	if opts.Secret == "" {
		return nil, errors.New("QR secret is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &QRService{
		secret:  []byte(opts.Secret),
		farmers: opts.Farmers,
		clock:   clock,
	}, nil
}

// Sign computes the signature over the canonical message
// farmerID + "|" + timestamp.
func (s *QRService) Sign(farmerID, timestamp string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(farmerID + "|" + timestamp))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

// Issue builds a signed QR token for the farmer, timestamped now.
func (s *QRService) Issue(farmerID string) model.QRToken {
	ts := s.clock().UTC().Format(time.RFC3339Nano)
	return model.QRToken{
		FarmerID:  farmerID,
		Timestamp: ts,
		Signature: s.Sign(farmerID, ts),
	}
}

// Verify recomputes the expected signature and compares it in constant time.
// It returns false, never an error, on malformed or missing fields: the input
// is untrusted scanner data.
func (s *QRService) Verify(token model.QRToken) bool {
	if token.FarmerID == "" || token.Timestamp == "" || token.Signature == "" {
		return false
	}
	expected, err := base64.URLEncoding.DecodeString(s.Sign(token.FarmerID, token.Timestamp))
	if err != nil {
		return false
	}
	provided, err := base64.URLEncoding.DecodeString(token.Signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, provided)
}

// VerifyAndDescribe checks the signature and, when valid, resolves the farmer
// for the display payload shown to the scanning client. An invalid signature
// is unauthorized; a valid signature for an unknown farmer is not found.
func (s *QRService) VerifyAndDescribe(ctx context.Context, token model.QRToken) (*model.QRVerification, error) {
	if !s.Verify(token) {
		return nil, apperrors.Unauthorized("invalid or tampered QR signature")
	}
	if s.farmers == nil {
		return nil, apperrors.Internal("farmer lookup is not configured")
	}
	farmer, err := s.farmers.FindByID(ctx, token.FarmerID)
	if err != nil {
		return nil, err
	}
	return &model.QRVerification{
		Verified: true,
		FarmerID: farmer.FarmerID,
		Name:     farmer.FullName(),
		District: farmer.District,
		Province: farmer.Province,
	}, nil
}
