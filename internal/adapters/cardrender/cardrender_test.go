package cardrender

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimanage/farmreg/internal/core"
	"github.com/agrimanage/farmreg/internal/testutil"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderer_RenderQR(t *testing.T) {
	r := New(Options{})

	png, err := r.RenderQR([]byte(`{"farmer_id":"FRM-001","timestamp":"t","signature":"s"}`))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic), "output must be a PNG")
}

func TestRenderer_RenderCard(t *testing.T) {
	r := New(Options{Issuer: "Ministry of Agriculture"})

	qrPNG, err := r.RenderQR([]byte("payload"))
	require.NoError(t, err)

	pdf, err := r.RenderCard(core.RenderCardInput{
		Farmer:   testutil.NewFarmer().WithID("FRM-001").Build(),
		QRPNG:    qrPNG,
		IssuedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "output must be a PDF")
	assert.Greater(t, len(pdf), 1000)
}

func TestRenderer_RenderCardWithoutPhoto(t *testing.T) {
	r := New(Options{})

	qrPNG, err := r.RenderQR([]byte("payload"))
	require.NoError(t, err)

	// No photo on file: the placeholder is drawn and rendering succeeds.
	pdf, err := r.RenderCard(core.RenderCardInput{
		Farmer:   testutil.NewFarmer().Build(),
		QRPNG:    qrPNG,
		Photo:    nil,
		IssuedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
}

func TestRenderer_RenderCardRequiresFarmer(t *testing.T) {
	r := New(Options{})
	_, err := r.RenderCard(core.RenderCardInput{})
	assert.Error(t, err)
}
