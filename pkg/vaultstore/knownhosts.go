package vaultstore

import (
	"database/sql"
	"fmt"
	"time"
)

// KnownHostRow is one stored known-host entry.
type KnownHostRow struct {
	ID          int64
	Host        string
	Port        int
	KeyType     string
	Fingerprint string
	PublicKey   []byte
	AddedAt     int64
	LastSeenAt  int64
}

// FindKnownHost looks up the stored entry for (host, port), or sql.ErrNoRows.
func (s *Store) FindKnownHost(host string, port int) (KnownHostRow, error) {
	row := s.db.QueryRow(`
		SELECT id, host, port, key_type, fingerprint, public_key, added_at, last_seen_at
		FROM known_hosts WHERE host = ? AND port = ?
	`, host, port)

	var k KnownHostRow
	err := row.Scan(&k.ID, &k.Host, &k.Port, &k.KeyType, &k.Fingerprint, &k.PublicKey, &k.AddedAt, &k.LastSeenAt)
	if err == sql.ErrNoRows {
		return KnownHostRow{}, err
	}
	if err != nil {
		return KnownHostRow{}, fmt.Errorf("vaultstore: find_known_host: %w", err)
	}
	return k, nil
}

// TouchKnownHost refreshes last_seen_at for an already-accepted host key.
func (s *Store) TouchKnownHost(host string, port int) error {
	_, err := s.db.Exec(`UPDATE known_hosts SET last_seen_at = ? WHERE host = ? AND port = ?`,
		time.Now().UnixMilli(), host, port)
	if err != nil {
		return fmt.Errorf("vaultstore: touch_known_host: %w", err)
	}
	return nil
}

// AddHostKey atomically replaces any prior row for (host, port) with the new
// key type, fingerprint, and raw public key bytes.
func (s *Store) AddHostKey(host string, port int, keyType, fingerprint string, publicKey []byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("vaultstore: add_host_key: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM known_hosts WHERE host = ? AND port = ?`, host, port); err != nil {
		return fmt.Errorf("vaultstore: add_host_key: delete prior: %w", err)
	}

	now := time.Now().UnixMilli()
	if _, err := tx.Exec(`
		INSERT INTO known_hosts (host, port, key_type, fingerprint, public_key, added_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, host, port, keyType, fingerprint, publicKey, now, now); err != nil {
		return fmt.Errorf("vaultstore: add_host_key: insert: %w", err)
	}

	return tx.Commit()
}

// RemoveHostKey deletes the stored entry for (host, port), if any.
func (s *Store) RemoveHostKey(host string, port int) error {
	_, err := s.db.Exec(`DELETE FROM known_hosts WHERE host = ? AND port = ?`, host, port)
	if err != nil {
		return fmt.Errorf("vaultstore: remove_host_key: %w", err)
	}
	return nil
}

// ListKnownHosts returns every stored entry ordered by (host, port).
func (s *Store) ListKnownHosts() ([]KnownHostRow, error) {
	rows, err := s.db.Query(`
		SELECT id, host, port, key_type, fingerprint, public_key, added_at, last_seen_at
		FROM known_hosts ORDER BY host, port
	`)
	if err != nil {
		return nil, fmt.Errorf("vaultstore: list_known_hosts: %w", err)
	}
	defer rows.Close()

	var out []KnownHostRow
	for rows.Next() {
		var k KnownHostRow
		if err := rows.Scan(&k.ID, &k.Host, &k.Port, &k.KeyType, &k.Fingerprint, &k.PublicKey, &k.AddedAt, &k.LastSeenAt); err != nil {
			return nil, fmt.Errorf("vaultstore: scan known_host: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
