// Package vaultcrypto derives and applies the cryptographic keys that protect
// the Rite vault: Argon2id for password hashing and master-key derivation,
// ChaCha20-Poly1305 for encrypting stored connection credentials.
package vaultcrypto

import (
	cryptorand "crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Argon2id parameters, RFC 9106 "Option 2" (space-constrained environments)
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 4
	argon2KeyLen  = 32

	saltLength = 16
)

var (
	// ErrMalformedHash is returned when a stored password hash cannot be parsed
	ErrMalformedHash = errors.New("vaultcrypto: malformed password hash")
	// ErrUnsupportedVariant is returned when a hash uses a KDF variant this package doesn't decode
	ErrUnsupportedVariant = errors.New("vaultcrypto: unsupported hash variant")
	// ErrDecryptFailed is returned when AEAD authentication fails (wrong key or tampered data)
	ErrDecryptFailed = errors.New("vaultcrypto: decryption failed, data may be tampered or corrupted")
)

// GenerateSalt returns fresh cryptographically random Argon2 salt bytes
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(cryptorand.Reader, salt); err != nil {
		return nil, fmt.Errorf("vaultcrypto: generate salt: %w", err)
	}
	return salt, nil
}

// HashPassword derives a PHC-formatted Argon2id hash of password for storage
// and later verification via VerifyPassword. It does not return usable key
// material; use DeriveMasterKey for that.
func HashPassword(password string) (string, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}
	digest := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return encodePHC(salt, digest), nil
}

// VerifyPassword checks password against a PHC hash produced by HashPassword
func VerifyPassword(password, encoded string) (bool, error) {
	salt, digest, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, uint32(len(digest)))
	return constantTimeEqual(candidate, digest), nil
}

// DeriveMasterKey derives the ChaCha20-Poly1305 key used to encrypt vault
// contents from the unlock password and a persisted per-vault salt.
func DeriveMasterKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, chacha20poly1305.KeySize)
}

// Encrypt seals plaintext under key with a fresh random nonce, returning
// ciphertext and nonce for separate storage.
func Encrypt(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, fmt.Errorf("vaultcrypto: create cipher: %w", err)
	}

	nonce = make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(cryptorand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("vaultcrypto: generate nonce: %w", err)
	}

	ciphertext = aead.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Decrypt opens ciphertext sealed by Encrypt with the given key and nonce
func Decrypt(key, nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("vaultcrypto: invalid nonce size %d (expected %d)", len(nonce), chacha20poly1305.NonceSize)
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("vaultcrypto: create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}

// encodePHC renders a salt+digest pair as a PHC-style argon2id string, e.g.
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<digest>
func encodePHC(salt, digest []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest))
}

// decodePHC parses a string produced by encodePHC back into its salt and digest
func decodePHC(encoded string) (salt, digest []byte, err error) {
	parts := strings.Split(encoded, "$")
	// parts[0] == "" because the string starts with '$'
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, ErrUnsupportedVariant
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, ErrMalformedHash
	}

	var memory, time int
	var threads int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, nil, ErrMalformedHash
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	digest, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: digest: %v", ErrMalformedHash, err)
	}

	return salt, digest, nil
}

// constantTimeEqual compares two byte slices in time proportional only to
// their length, never short-circuiting on the first mismatch.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

// storageKeySize is the SQLCipher page-encryption key length, independent of
// argon2KeyLen: this key protects the database file at rest against casual
// copying, not against a stolen master password. It never leaves the host.
const storageKeySize = 32

// LoadOrCreateStorageKey reads the SQLCipher page-encryption key from path,
// generating and persisting a fresh random one on first use. This key is
// unrelated to the master password: it lets vaultstore.Open succeed (and
// is_first_run run) before any password has been entered, the same way the
// teacher's keystore bootstraps a hardware/salt file before a credential is
// ever stored.
func LoadOrCreateStorageKey(path string) ([]byte, error) {
	if data, err := os.ReadFile(path); err == nil {
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("vaultcrypto: decode storage key: %w", err)
		}
		if len(key) != storageKeySize {
			return nil, fmt.Errorf("vaultcrypto: storage key at %s has wrong length %d", path, len(key))
		}
		return key, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("vaultcrypto: read storage key: %w", err)
	}

	key := make([]byte, storageKeySize)
	if _, err := io.ReadFull(cryptorand.Reader, key); err != nil {
		return nil, fmt.Errorf("vaultcrypto: generate storage key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("vaultcrypto: create storage key directory: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return nil, fmt.Errorf("vaultcrypto: write storage key: %w", err)
	}
	return key, nil
}

// EncodeKeyHex renders key material as lowercase hex for use in the SQLCipher
// DSN's _pragma_key parameter.
func EncodeKeyHex(key []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(key)*2)
	for i, b := range key {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}
