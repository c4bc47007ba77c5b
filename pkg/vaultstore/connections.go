package vaultstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Connection is a stored connection row, credentials still encrypted.
type Connection struct {
	ID                  string
	Name                string
	Protocol            string
	Hostname            string
	Port                int
	Username            string
	EncryptedCredentials []byte
	Nonce               []byte
	Color               *string
	Icon                *string
	Folder              *string
	Notes               *string
	KeepAlive           *string
	KeepAliveInterval   *int
	LastUsedAt          *int64
	CreatedAt           int64
	UpdatedAt           int64
}

// NewConnectionInput carries the fields needed to create a connection.
type NewConnectionInput struct {
	Name                 string
	Protocol             string
	Hostname             string
	Port                 int
	Username             string
	EncryptedCredentials []byte
	Nonce                []byte
	Color                *string
	Icon                 *string
	Folder               *string
	Notes                *string
	KeepAlive            *string
	KeepAliveInterval    *int
}

// OptionalField distinguishes "field not mentioned in this update" from
// "field explicitly set to null" for UpdateConnection's keep-alive override.
type OptionalField[T any] struct {
	Set   bool
	Value *T
}

// UpdateConnectionInput merges partial fields into an existing connection.
// Unset is recognized by nil; KeepAlive/KeepAliveInterval use OptionalField
// so an update can explicitly clear them back to null.
type UpdateConnectionInput struct {
	Name                 *string
	Hostname             *string
	Port                 *int
	Username             *string
	EncryptedCredentials []byte
	Nonce                []byte
	Color                *string
	Icon                 *string
	Folder               *string
	Notes                *string
	KeepAlive            OptionalField[string]
	KeepAliveInterval    OptionalField[int]
}

const connectionColumns = `id, name, protocol, hostname, port, username, encrypted_credentials, nonce,
	color, icon, folder, notes, keep_alive, keep_alive_interval, last_used_at, created_at, updated_at`

func scanConnection(row interface {
	Scan(dest ...interface{}) error
}) (Connection, error) {
	var c Connection
	err := row.Scan(&c.ID, &c.Name, &c.Protocol, &c.Hostname, &c.Port, &c.Username,
		&c.EncryptedCredentials, &c.Nonce, &c.Color, &c.Icon, &c.Folder, &c.Notes,
		&c.KeepAlive, &c.KeepAliveInterval, &c.LastUsedAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateConnection generates an id and timestamps and inserts a new row.
func (s *Store) CreateConnection(input NewConnectionInput) (Connection, error) {
	now := time.Now().UnixMilli()
	c := Connection{
		ID:                   uuid.NewString(),
		Name:                 input.Name,
		Protocol:             input.Protocol,
		Hostname:             input.Hostname,
		Port:                 input.Port,
		Username:             input.Username,
		EncryptedCredentials: input.EncryptedCredentials,
		Nonce:                input.Nonce,
		Color:                input.Color,
		Icon:                 input.Icon,
		Folder:               input.Folder,
		Notes:                input.Notes,
		KeepAlive:            input.KeepAlive,
		KeepAliveInterval:    input.KeepAliveInterval,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	_, err := s.db.Exec(`
		INSERT INTO connections (id, name, protocol, hostname, port, username, encrypted_credentials, nonce,
			color, icon, folder, notes, keep_alive, keep_alive_interval, last_used_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)
	`, c.ID, c.Name, c.Protocol, c.Hostname, c.Port, c.Username, c.EncryptedCredentials, c.Nonce,
		c.Color, c.Icon, c.Folder, c.Notes, c.KeepAlive, c.KeepAliveInterval, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return Connection{}, fmt.Errorf("vaultstore: create_connection: %w", err)
	}
	return c, nil
}

// GetConnection fetches one connection by id, or sql.ErrNoRows.
func (s *Store) GetConnection(id string) (Connection, error) {
	row := s.db.QueryRow(`SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id)
	c, err := scanConnection(row)
	if err == sql.ErrNoRows {
		return Connection{}, err
	}
	if err != nil {
		return Connection{}, fmt.Errorf("vaultstore: get_connection: %w", err)
	}
	return c, nil
}

// GetAllConnections returns every connection ordered by name, case-insensitive.
func (s *Store) GetAllConnections() ([]Connection, error) {
	return s.queryConnections(`SELECT `+connectionColumns+` FROM connections ORDER BY name COLLATE NOCASE`)
}

// GetConnectionsByFolder returns connections in folder, ordered by name.
func (s *Store) GetConnectionsByFolder(folder string) ([]Connection, error) {
	return s.queryConnections(`SELECT `+connectionColumns+` FROM connections WHERE folder = ? ORDER BY name COLLATE NOCASE`, folder)
}

func (s *Store) queryConnections(query string, args ...interface{}) ([]Connection, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("vaultstore: query connections: %w", err)
	}
	defer rows.Close()

	var out []Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("vaultstore: scan connection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateConnection merges input's set fields into the stored row and
// refreshes updated_at.
func (s *Store) UpdateConnection(id string, input UpdateConnectionInput) (Connection, error) {
	existing, err := s.GetConnection(id)
	if err != nil {
		return Connection{}, err
	}

	if input.Name != nil {
		existing.Name = *input.Name
	}
	if input.Hostname != nil {
		existing.Hostname = *input.Hostname
	}
	if input.Port != nil {
		existing.Port = *input.Port
	}
	if input.Username != nil {
		existing.Username = *input.Username
	}
	if input.EncryptedCredentials != nil {
		existing.EncryptedCredentials = input.EncryptedCredentials
		existing.Nonce = input.Nonce
	}
	if input.Color != nil {
		existing.Color = input.Color
	}
	if input.Icon != nil {
		existing.Icon = input.Icon
	}
	if input.Folder != nil {
		existing.Folder = input.Folder
	}
	if input.Notes != nil {
		existing.Notes = input.Notes
	}
	if input.KeepAlive.Set {
		existing.KeepAlive = input.KeepAlive.Value
	}
	if input.KeepAliveInterval.Set {
		existing.KeepAliveInterval = input.KeepAliveInterval.Value
	}
	existing.UpdatedAt = time.Now().UnixMilli()

	_, err = s.db.Exec(`
		UPDATE connections SET name = ?, hostname = ?, port = ?, username = ?, encrypted_credentials = ?,
			nonce = ?, color = ?, icon = ?, folder = ?, notes = ?, keep_alive = ?, keep_alive_interval = ?,
			updated_at = ?
		WHERE id = ?
	`, existing.Name, existing.Hostname, existing.Port, existing.Username, existing.EncryptedCredentials,
		existing.Nonce, existing.Color, existing.Icon, existing.Folder, existing.Notes,
		existing.KeepAlive, existing.KeepAliveInterval, existing.UpdatedAt, id)
	if err != nil {
		return Connection{}, fmt.Errorf("vaultstore: update_connection: %w", err)
	}
	return existing, nil
}

// UpdateLastUsed touches last_used_at and updated_at for id.
func (s *Store) UpdateLastUsed(id string) error {
	now := time.Now().UnixMilli()
	res, err := s.db.Exec(`UPDATE connections SET last_used_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
	if err != nil {
		return fmt.Errorf("vaultstore: update_last_used: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteConnection removes a connection by id.
func (s *Store) DeleteConnection(id string) error {
	res, err := s.db.Exec(`DELETE FROM connections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("vaultstore: delete_connection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
