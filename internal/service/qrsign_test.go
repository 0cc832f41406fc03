package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimanage/farmreg/internal/domain/model"
	apperrors "github.com/agrimanage/farmreg/internal/errors"
	"github.com/agrimanage/farmreg/internal/testutil"
)

func newTestQRService(t *testing.T, farmers *testutil.FakeFarmerRepo) *QRService {
	t.Helper()
	svc, err := NewQRService(QRServiceOptions{
		Secret:  "qr-test-secret",
		Farmers: farmers,
	})
	require.NoError(t, err)
	return svc
}

func TestQRService_IssueVerifyRoundTrip(t *testing.T) {
	svc := newTestQRService(t, nil)

	token := svc.Issue("FRM-001")
	assert.Equal(t, "FRM-001", token.FarmerID)
	assert.NotEmpty(t, token.Timestamp)
	assert.NotEmpty(t, token.Signature)

	assert.True(t, svc.Verify(token))
}

func TestQRService_VerifyRejectsTampering(t *testing.T) {
	svc := newTestQRService(t, nil)
	token := svc.Issue("FRM-001")

	t.Run("flipped signature bit", func(t *testing.T) {
		raw, err := base64.URLEncoding.DecodeString(token.Signature)
		require.NoError(t, err)
		raw[0] ^= 0x01
		flipped := token
		flipped.Signature = base64.URLEncoding.EncodeToString(raw)
		assert.False(t, svc.Verify(flipped))
	})

	t.Run("different farmer id", func(t *testing.T) {
		forged := token
		forged.FarmerID = "FRM-002"
		assert.False(t, svc.Verify(forged))
	})

	t.Run("different timestamp", func(t *testing.T) {
		forged := token
		forged.Timestamp = "2026-01-01T00:00:00Z"
		assert.False(t, svc.Verify(forged))
	})

	t.Run("missing fields", func(t *testing.T) {
		assert.False(t, svc.Verify(model.QRToken{}))
		assert.False(t, svc.Verify(model.QRToken{FarmerID: "FRM-001"}))
	})

	t.Run("signature not base64", func(t *testing.T) {
		forged := token
		forged.Signature = "%%%not-base64%%%"
		assert.False(t, svc.Verify(forged))
	})
}

func TestQRService_VerifyIsIndependentOfSigningService(t *testing.T) {
	// A token issued by one instance verifies on another sharing the secret,
	// and fails on an instance with a different secret.
	issuer := newTestQRService(t, nil)
	token := issuer.Issue("FRM-001")

	sameSecret, err := NewQRService(QRServiceOptions{Secret: "qr-test-secret"})
	require.NoError(t, err)
	assert.True(t, sameSecret.Verify(token))

	otherSecret, err := NewQRService(QRServiceOptions{Secret: "rotated-secret"})
	require.NoError(t, err)
	assert.False(t, otherSecret.Verify(token))
}

func TestQRService_VerifyAndDescribe(t *testing.T) {
	farmer := testutil.NewFarmer().WithID("FRM-001").WithDistrict("Chongwe").Build()
	farmers := testutil.NewFakeFarmerRepo(farmer)
	svc := newTestQRService(t, farmers)

	t.Run("valid token returns display payload", func(t *testing.T) {
		res, err := svc.VerifyAndDescribe(context.Background(), svc.Issue("FRM-001"))
		require.NoError(t, err)
		assert.True(t, res.Verified)
		assert.Equal(t, "FRM-001", res.FarmerID)
		assert.Equal(t, farmer.FullName(), res.Name)
		assert.Equal(t, "Chongwe", res.District)
	})

	t.Run("tampered token is unauthorized", func(t *testing.T) {
		token := svc.Issue("FRM-001")
		token.FarmerID = "FRM-002"
		_, err := svc.VerifyAndDescribe(context.Background(), token)
		assert.True(t, apperrors.IsUnauthorized(err))
	})

	t.Run("valid token for deleted farmer is not found", func(t *testing.T) {
		token := svc.Issue("FRM-404")
		_, err := svc.VerifyAndDescribe(context.Background(), token)
		assert.True(t, apperrors.IsNotFound(err))
	})
}
