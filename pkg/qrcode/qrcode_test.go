package qrcode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codinglibs/mfa/pkg/qrcode"
)

const testURI = "otpauth://totp/alice@example.com?secret=GEZDGNBVGY3TQOJQ&issuer=Acme&digits=6&period=30"

func TestGeneratePNG(t *testing.T) {
	t.Parallel()

	png, err := qrcode.GeneratePNG(testURI, 200)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestGeneratePNG_DefaultSize(t *testing.T) {
	t.Parallel()

	png, err := qrcode.GeneratePNG(testURI, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestGeneratePNG_EmptyContent(t *testing.T) {
	t.Parallel()

	_, err := qrcode.GeneratePNG("   ", 200)
	assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
}

func TestGenerateDataURI(t *testing.T) {
	t.Parallel()

	uri, err := qrcode.GenerateDataURI(testURI, 200)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
