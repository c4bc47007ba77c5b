package vaultstore

import (
	"database/sql"
	"fmt"
	"time"
)

// DefaultHostKeyVerificationMode is used when the "host_key_verification_mode"
// setting has never been written.
const DefaultHostKeyVerificationMode = "strict"

// GetSetting returns value for key, or sql.ErrNoRows if unset.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("vaultstore: get_setting: %w", err)
	}
	return value, nil
}

// SetSetting upserts key/value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("vaultstore: set_setting: %w", err)
	}
	return nil
}

// GetAllSettings returns every stored key/value pair.
func (s *Store) GetAllSettings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("vaultstore: get_all_settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("vaultstore: get_all_settings: scan: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}

// HostKeyVerificationMode returns the configured mode, defaulting to "strict".
func (s *Store) HostKeyVerificationMode() (string, error) {
	mode, err := s.GetSetting("host_key_verification_mode")
	if err == sql.ErrNoRows {
		return DefaultHostKeyVerificationMode, nil
	}
	if err != nil {
		return "", err
	}
	return mode, nil
}
