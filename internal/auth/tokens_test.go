package auth

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{7}, keyLength)
}

func TestMintAndVerify(t *testing.T) {
	svc, err := NewTokenService(testKey(), time.Hour)
	require.NoError(t, err)

	token, err := svc.Mint("reader-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "reader-1", claims.ReaderID)
	assert.Equal(t, "reader-1", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.TokenID)
}

func TestMint_RequiresReader(t *testing.T) {
	svc, err := NewTokenService(testKey(), time.Hour)
	require.NoError(t, err)
	_, err = svc.Mint("")
	assert.Error(t, err)
}

func TestVerify_Rejects(t *testing.T) {
	svc, err := NewTokenService(testKey(), time.Hour)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := NewTokenService(bytes.Repeat([]byte{9}, keyLength), time.Hour)
		require.NoError(t, err)
		token, err := other.Mint("reader-1")
		require.NoError(t, err)
		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := NewTokenService(testKey(), -time.Minute)
		require.NoError(t, err)
		token, err := expired.Mint("reader-1")
		require.NoError(t, err)
		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		key, err := paseto.V4SymmetricKeyFromBytes(testKey())
		require.NoError(t, err)
		tok := paseto.NewToken()
		tok.SetIssuer(tokenIssuer)
		tok.SetAudience("someone-else")
		tok.SetSubject("reader-1")
		tok.SetIssuedAt(time.Now())
		tok.SetNotBefore(time.Now())
		tok.SetExpiration(time.Now().Add(time.Hour))
		_, err = svc.Verify(tok.V4Encrypt(key, nil))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenService_KeyLength(t *testing.T) {
	_, err := NewTokenService([]byte("short"), time.Hour)
	assert.Error(t, err)
}

func TestLoadOrGenerateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "auth.key")

	key, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadOrGenerateKey_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.key")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))
	_, err := LoadOrGenerateKey(path)
	assert.Error(t, err)
}

func TestDecodeKey(t *testing.T) {
	key, err := DecodeKey(strings.Repeat("ab", keyLength))
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	_, err = DecodeKey(strings.Repeat("zz", keyLength))
	assert.Error(t, err)
}
