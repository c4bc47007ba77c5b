// Package knownhosts implements Rite's trust-on-first-use host-key store:
// fingerprint computation and the Accepted/Unknown/Changed verification
// outcome against persisted entries.
package knownhosts

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"

	"github.com/armorclaw/bridge/pkg/vaultstore"
)

// Outcome is the result of checking a server's host key against the store.
type Outcome int

const (
	Accepted Outcome = iota
	Unknown
	Changed
)

// Fingerprint renders keyBytes as "SHA256:" + base64(SHA-256(keyBytes)),
// matching the format every known_hosts row stores.
func Fingerprint(keyBytes []byte) string {
	sum := sha256.Sum256(keyBytes)
	return "SHA256:" + base64.StdEncoding.EncodeToString(sum[:])
}

// Store wraps vaultstore's known_hosts table with fingerprint verification.
type Store struct {
	db *vaultstore.Store
}

// New constructs a Store over db.
func New(db *vaultstore.Store) *Store {
	return &Store{db: db}
}

// Verify checks (host, port, keyBytes) against the stored entry and, for
// Accepted, refreshes last_seen_at.
func (s *Store) Verify(host string, port int, keyBytes []byte) (Outcome, error) {
	row, err := s.db.FindKnownHost(host, port)
	if errors.Is(err, sql.ErrNoRows) {
		return Unknown, nil
	}
	if err != nil {
		return Unknown, err
	}

	fp := Fingerprint(keyBytes)
	if fp != row.Fingerprint {
		return Changed, nil
	}

	if err := s.db.TouchKnownHost(host, port); err != nil {
		return Accepted, err
	}
	return Accepted, nil
}

// CurrentFingerprint returns the fingerprint stored for (host, port).
func (s *Store) CurrentFingerprint(host string, port int) (string, error) {
	row, err := s.db.FindKnownHost(host, port)
	if err != nil {
		return "", err
	}
	return row.Fingerprint, nil
}

// AddHostKey replaces any prior entry for (host, port) with keyType/keyBytes.
func (s *Store) AddHostKey(host string, port int, keyType string, keyBytes []byte) error {
	return s.db.AddHostKey(host, port, keyType, Fingerprint(keyBytes), keyBytes)
}

// RemoveHostKey deletes the entry for (host, port), if any.
func (s *Store) RemoveHostKey(host string, port int) error {
	return s.db.RemoveHostKey(host, port)
}

// Entry is one known-host listing row.
type Entry struct {
	Host        string
	Port        int
	KeyType     string
	Fingerprint string
	AddedAt     int64
	LastSeenAt  int64
}

// List returns every stored entry ordered by (host, port).
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.ListKnownHosts()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = Entry{Host: r.Host, Port: r.Port, KeyType: r.KeyType, Fingerprint: r.Fingerprint, AddedAt: r.AddedAt, LastSeenAt: r.LastSeenAt}
	}
	return out, nil
}

// VerificationMode returns the configured host-key verification mode,
// defaulting to "strict" when unset or on read error.
func (s *Store) VerificationMode() string {
	mode, err := s.db.HostKeyVerificationMode()
	if err != nil {
		return vaultstore.DefaultHostKeyVerificationMode
	}
	return mode
}
