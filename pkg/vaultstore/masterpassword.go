package vaultstore

import (
	"database/sql"
	"fmt"
	"time"
)

// IsFirstRun reports whether no master-password record has been stored yet.
func (s *Store) IsFirstRun() (bool, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM master_password`).Scan(&count); err != nil {
		return false, fmt.Errorf("vaultstore: is_first_run: %w", err)
	}
	return count == 0, nil
}

// StoreMasterPassword upserts the singleton master-password record.
func (s *Store) StoreMasterPassword(hash string, salt []byte) error {
	now := time.Now().UnixMilli()
	_, err := s.db.Exec(`
		INSERT INTO master_password (id, hash, salt, created_at, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET hash = excluded.hash, salt = excluded.salt, updated_at = excluded.updated_at
	`, hash, salt, now, now)
	if err != nil {
		return fmt.Errorf("vaultstore: store_master_password: %w", err)
	}
	return nil
}

// GetMasterPassword returns the stored PHC hash and salt, or sql.ErrNoRows if
// no record has been set up yet.
func (s *Store) GetMasterPassword() (hash string, salt []byte, err error) {
	err = s.db.QueryRow(`SELECT hash, salt FROM master_password WHERE id = 1`).Scan(&hash, &salt)
	if err == sql.ErrNoRows {
		return "", nil, err
	}
	if err != nil {
		return "", nil, fmt.Errorf("vaultstore: get_master_password: %w", err)
	}
	return hash, salt, nil
}

// RecordUnlockAttempt appends one unlock-attempt entry timestamped now.
func (s *Store) RecordUnlockAttempt(success bool) error {
	_, err := s.db.Exec(`INSERT INTO unlock_attempts (timestamp_ms, success) VALUES (?, ?)`,
		time.Now().UnixMilli(), success)
	if err != nil {
		return fmt.Errorf("vaultstore: record_unlock_attempt: %w", err)
	}
	return nil
}

// UnlockAttempt is one recorded attempt to unlock the vault.
type UnlockAttempt struct {
	TimestampMs int64
	Success     bool
}

// RecentUnlockAttempts returns attempts within the last windowMinutes,
// ordered newest-first.
func (s *Store) RecentUnlockAttempts(windowMinutes int) ([]UnlockAttempt, error) {
	cutoff := time.Now().Add(-time.Duration(windowMinutes) * time.Minute).UnixMilli()
	rows, err := s.db.Query(`
		SELECT timestamp_ms, success FROM unlock_attempts
		WHERE timestamp_ms >= ?
		ORDER BY timestamp_ms DESC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("vaultstore: recent_unlock_attempts: %w", err)
	}
	defer rows.Close()

	var attempts []UnlockAttempt
	for rows.Next() {
		var a UnlockAttempt
		if err := rows.Scan(&a.TimestampMs, &a.Success); err != nil {
			return nil, fmt.Errorf("vaultstore: scan unlock attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// CleanOldUnlockAttempts deletes attempts older than 24 hours.
func (s *Store) CleanOldUnlockAttempts() error {
	cutoff := time.Now().Add(-24 * time.Hour).UnixMilli()
	_, err := s.db.Exec(`DELETE FROM unlock_attempts WHERE timestamp_ms < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("vaultstore: clean_old_unlock_attempts: %w", err)
	}
	return nil
}
