package vaultcrypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("MyStr0ng!P@ssw0rd#2024")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("MyStr0ng!P@ssw0rd#2024", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("WrongPassword123!", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("anything", "not-a-valid-hash")
	assert.ErrorIs(t, err, ErrUnsupportedVariant)
}

func TestDeriveMasterKeyDeterministic(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	k1 := DeriveMasterKey("correct horse battery staple", salt)
	k2 := DeriveMasterKey("correct horse battery staple", salt)
	assert.Equal(t, k1, k2)

	k3 := DeriveMasterKey("different password", salt)
	assert.NotEqual(t, k1, k3)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	key := DeriveMasterKey("hunter2", salt)

	ciphertext, nonce, err := Encrypt(key, []byte("super secret token"))
	require.NoError(t, err)

	plaintext, err := Decrypt(key, nonce, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "super secret token", string(plaintext))
}

func TestDecryptDetectsTampering(t *testing.T) {
	salt, _ := GenerateSalt()
	key := DeriveMasterKey("hunter2", salt)

	ciphertext, nonce, err := Encrypt(key, []byte("super secret token"))
	require.NoError(t, err)

	ciphertext[0] ^= 0xFF

	_, err = Decrypt(key, nonce, ciphertext)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	salt, _ := GenerateSalt()
	key := DeriveMasterKey("hunter2", salt)
	otherKey := DeriveMasterKey("different", salt)

	ciphertext, nonce, err := Encrypt(key, []byte("payload"))
	require.NoError(t, err)

	_, err = Decrypt(otherKey, nonce, ciphertext)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestEncodeKeyHex(t *testing.T) {
	assert.Equal(t, "00ff10", EncodeKeyHex([]byte{0x00, 0xff, 0x10}))
}
