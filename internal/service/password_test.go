package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agrimanage/farmreg/internal/errors"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher()

	digest, err := h.Hash("Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, digest)
	assert.NotContains(t, digest, "Secret123")

	assert.True(t, h.Verify("Secret123", digest))
	assert.False(t, h.Verify("Secret124", digest))
	assert.False(t, h.Verify("", digest))
}

func TestPasswordHasher_TruncatesAt72Bytes(t *testing.T) {
	h := NewPasswordHasher()

	prefix := strings.Repeat("a", 72)
	digest, err := h.Hash(prefix + "tail-one")
	require.NoError(t, err)

	// Characters beyond byte 72 do not participate in the hash.
	assert.True(t, h.Verify(prefix+"tail-two", digest))
	assert.True(t, h.Verify(prefix, digest))
	assert.False(t, h.Verify(prefix[:71], digest))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "Secret123", wantErr: false},
		{name: "too short", password: "Ab1", wantErr: true},
		{name: "no uppercase", password: "secret123", wantErr: true},
		{name: "no lowercase", password: "SECRET123", wantErr: true},
		{name: "no digit", password: "SecretPass", wantErr: true},
		{name: "exactly eight", password: "Abcdefg1", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsValidation(err))
				assert.Equal(t, "password", apperrors.GetField(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
