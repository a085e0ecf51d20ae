package keys

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	kp, err := Generate()
	require.NoError(t, err)
	require.NotNil(t, kp.Private())
	assert.Equal(t, kp.Public(), &kp.Private().PublicKey)
}

func TestKeyPair_PublicPEM(t *testing.T) {
	t.Parallel()

	kp, err := Generate()
	require.NoError(t, err)

	pemStr, err := kp.PublicPEM()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----"))

	block, _ := pem.Decode([]byte(pemStr))
	require.NotNil(t, block)
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)
	assert.Equal(t, kp.Public(), parsed)
}

func TestLoadOrGenerate_EmptyPathGenerates(t *testing.T) {
	t.Parallel()

	kp, err := LoadOrGenerate("")
	require.NoError(t, err)
	require.NotNil(t, kp.Private())
}

func TestLoadOrGenerate_RoundTrip(t *testing.T) {
	t.Parallel()

	kp, err := Generate()
	require.NoError(t, err)

	der := x509.MarshalPKCS1PrivateKey(kp.Private())
	raw := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der})

	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	loaded, err := LoadOrGenerate(path)
	require.NoError(t, err)
	assert.Equal(t, kp.Private().D, loaded.Private().D)
}

func TestLoadOrGenerate_BadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))

	_, err := LoadOrGenerate(path)
	assert.Error(t, err)
}
