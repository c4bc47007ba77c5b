// Package connections implements Rite's stored-connection CRUD, encrypting
// and decrypting credentials under the vault's master key.
package connections

import (
	"encoding/json"
	"fmt"

	"github.com/armorclaw/bridge/pkg/riteerrors"
	"github.com/armorclaw/bridge/pkg/vault"
	"github.com/armorclaw/bridge/pkg/vaultcrypto"
	"github.com/armorclaw/bridge/pkg/vaultstore"
)

// AuthMethod is the decrypted, tagged credential variant a connection holds.
// Exactly one of Password or PublicKey fields is meaningful, selected by Kind.
type AuthMethod struct {
	Kind       string `json:"kind"` // "password" | "public_key"
	Password   string `json:"password,omitempty"`
	KeyPath    string `json:"key_path,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
}

// Connection is the fully decrypted view returned by Get.
type Connection struct {
	ID                string
	Name              string
	Protocol          string
	Hostname          string
	Port              int
	Username          string
	Auth              AuthMethod
	Color             *string
	Icon              *string
	Folder            *string
	Notes             *string
	KeepAlive         *string
	KeepAliveInterval *int
	LastUsedAt        *int64
	CreatedAt         int64
	UpdatedAt         int64
}

// Summary is the listing view: no credentials are decrypted. AuthType is a
// hard-coded hint ("password"), advisory only per spec — never treat it as
// authoritative without calling Get.
type Summary struct {
	ID                string
	Name              string
	Protocol          string
	Hostname          string
	Port              int
	Username          string
	AuthType          string
	Color             *string
	Icon              *string
	Folder            *string
	Notes             *string
	KeepAlive         *string
	KeepAliveInterval *int
	LastUsedAt        *int64
	CreatedAt         int64
	UpdatedAt         int64
}

// NewConnectionInput is what a caller supplies to Create.
type NewConnectionInput struct {
	Name              string
	Protocol          string
	Hostname          string
	Port              int
	Username          string
	Auth              AuthMethod
	Color             *string
	Icon              *string
	Folder            *string
	Notes             *string
	KeepAlive         *string
	KeepAliveInterval *int
}

// Manager mediates all connection storage, requiring the vault to be
// Unlocked for any operation that touches credentials.
type Manager struct {
	store *vaultstore.Store
	vault *vault.Vault
}

// New constructs a Manager over store, gating credential operations on vault.
func New(store *vaultstore.Store, v *vault.Vault) *Manager {
	return &Manager{store: store, vault: v}
}

func (m *Manager) masterKey() ([]byte, error) {
	key, err := m.vault.GetMasterKey()
	if err != nil {
		return nil, riteerrors.Wrap(riteerrors.KindLocked, err, "vault must be unlocked")
	}
	return key, nil
}

// Create encrypts input's credentials under the master key and persists a
// new connection. Requires Unlocked.
func (m *Manager) Create(input NewConnectionInput) (Connection, error) {
	if input.Port < 1 || input.Port > 65535 {
		return Connection{}, riteerrors.New(riteerrors.KindInvalidInput, "port must be in 1..=65535")
	}

	key, err := m.masterKey()
	if err != nil {
		return Connection{}, err
	}

	plaintext, err := json.Marshal(input.Auth)
	if err != nil {
		return Connection{}, riteerrors.Wrap(riteerrors.KindInvalidInput, err, "encode credentials")
	}
	ciphertext, nonce, err := vaultcrypto.Encrypt(key, plaintext)
	if err != nil {
		return Connection{}, riteerrors.Wrap(riteerrors.KindCrypto, err, "encrypt credentials")
	}

	row, err := m.store.CreateConnection(vaultstore.NewConnectionInput{
		Name:                 input.Name,
		Protocol:             input.Protocol,
		Hostname:             input.Hostname,
		Port:                 input.Port,
		Username:             input.Username,
		EncryptedCredentials: ciphertext,
		Nonce:                nonce,
		Color:                input.Color,
		Icon:                 input.Icon,
		Folder:               input.Folder,
		Notes:                input.Notes,
		KeepAlive:            input.KeepAlive,
		KeepAliveInterval:    input.KeepAliveInterval,
	})
	if err != nil {
		return Connection{}, riteerrors.Wrap(riteerrors.KindInvalidInput, err, "create connection")
	}

	return Connection{
		ID: row.ID, Name: row.Name, Protocol: row.Protocol, Hostname: row.Hostname,
		Port: row.Port, Username: row.Username, Auth: input.Auth,
		Color: row.Color, Icon: row.Icon, Folder: row.Folder, Notes: row.Notes,
		KeepAlive: row.KeepAlive, KeepAliveInterval: row.KeepAliveInterval,
		LastUsedAt: row.LastUsedAt, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

// Get fetches and decrypts one connection. Requires Unlocked.
func (m *Manager) Get(id string) (Connection, error) {
	key, err := m.masterKey()
	if err != nil {
		return Connection{}, err
	}

	row, err := m.store.GetConnection(id)
	if err != nil {
		return Connection{}, riteerrors.Wrap(riteerrors.KindNotFound, err, "connection not found")
	}

	plaintext, err := vaultcrypto.Decrypt(key, row.Nonce, row.EncryptedCredentials)
	if err != nil {
		return Connection{}, riteerrors.Wrap(riteerrors.KindCrypto, err, "decrypt credentials")
	}
	var auth AuthMethod
	if err := json.Unmarshal(plaintext, &auth); err != nil {
		return Connection{}, riteerrors.Wrap(riteerrors.KindCrypto, err, "decode credentials")
	}

	return Connection{
		ID: row.ID, Name: row.Name, Protocol: row.Protocol, Hostname: row.Hostname,
		Port: row.Port, Username: row.Username, Auth: auth,
		Color: row.Color, Icon: row.Icon, Folder: row.Folder, Notes: row.Notes,
		KeepAlive: row.KeepAlive, KeepAliveInterval: row.KeepAliveInterval,
		LastUsedAt: row.LastUsedAt, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

// GetAll lists every connection without decrypting credentials. Callable
// while Locked.
func (m *Manager) GetAll() ([]Summary, error) {
	rows, err := m.store.GetAllConnections()
	if err != nil {
		return nil, fmt.Errorf("connections: get_all: %w", err)
	}
	return summarize(rows), nil
}

// GetByFolder lists connections in folder without decrypting credentials.
// Callable while Locked.
func (m *Manager) GetByFolder(folder string) ([]Summary, error) {
	rows, err := m.store.GetConnectionsByFolder(folder)
	if err != nil {
		return nil, fmt.Errorf("connections: get_by_folder: %w", err)
	}
	return summarize(rows), nil
}

func summarize(rows []vaultstore.Connection) []Summary {
	out := make([]Summary, len(rows))
	for i, row := range rows {
		out[i] = Summary{
			ID: row.ID, Name: row.Name, Protocol: row.Protocol, Hostname: row.Hostname,
			Port: row.Port, Username: row.Username, AuthType: "password",
			Color: row.Color, Icon: row.Icon, Folder: row.Folder, Notes: row.Notes,
			KeepAlive: row.KeepAlive, KeepAliveInterval: row.KeepAliveInterval,
			LastUsedAt: row.LastUsedAt, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
		}
	}
	return out
}

// UpdateInput merges partial fields into an existing connection. A non-nil
// Auth re-encrypts credentials; KeepAlive/KeepAliveInterval use
// vaultstore.OptionalField to allow explicitly clearing a prior override.
type UpdateInput struct {
	Name              *string
	Hostname          *string
	Port              *int
	Username          *string
	Auth              *AuthMethod
	Color             *string
	Icon              *string
	Folder            *string
	Notes             *string
	KeepAlive         vaultstore.OptionalField[string]
	KeepAliveInterval vaultstore.OptionalField[int]
}

// Update merges input into the stored connection. Requires Unlocked.
func (m *Manager) Update(id string, input UpdateInput) (Connection, error) {
	key, err := m.masterKey()
	if err != nil {
		return Connection{}, err
	}

	storeInput := vaultstore.UpdateConnectionInput{
		Name: input.Name, Hostname: input.Hostname, Port: input.Port, Username: input.Username,
		Color: input.Color, Icon: input.Icon, Folder: input.Folder, Notes: input.Notes,
		KeepAlive: input.KeepAlive, KeepAliveInterval: input.KeepAliveInterval,
	}

	if input.Auth != nil {
		plaintext, err := json.Marshal(*input.Auth)
		if err != nil {
			return Connection{}, riteerrors.Wrap(riteerrors.KindInvalidInput, err, "encode credentials")
		}
		ciphertext, nonce, err := vaultcrypto.Encrypt(key, plaintext)
		if err != nil {
			return Connection{}, riteerrors.Wrap(riteerrors.KindCrypto, err, "encrypt credentials")
		}
		storeInput.EncryptedCredentials = ciphertext
		storeInput.Nonce = nonce
	}

	row, err := m.store.UpdateConnection(id, storeInput)
	if err != nil {
		return Connection{}, riteerrors.Wrap(riteerrors.KindNotFound, err, "update connection")
	}

	return m.Get(row.ID)
}

// Delete removes a connection by id.
func (m *Manager) Delete(id string) error {
	if err := m.store.DeleteConnection(id); err != nil {
		return riteerrors.Wrap(riteerrors.KindNotFound, err, "delete connection")
	}
	return nil
}

// MarkUsed touches last_used_at/updated_at for id.
func (m *Manager) MarkUsed(id string) error {
	if err := m.store.UpdateLastUsed(id); err != nil {
		return riteerrors.Wrap(riteerrors.KindNotFound, err, "mark_used")
	}
	return nil
}
