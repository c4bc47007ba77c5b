package vaultstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return make([]byte, 32)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.db")
	s, err := Open(path, testKey())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRejectsBadKeyLength(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "vault.db"), []byte("short"))
	assert.Error(t, err)
}

func TestIsFirstRun(t *testing.T) {
	s := openTestStore(t)

	first, err := s.IsFirstRun()
	require.NoError(t, err)
	assert.True(t, first)

	require.NoError(t, s.StoreMasterPassword("$argon2id$...", []byte("saltsaltsaltsalt")))

	first, err = s.IsFirstRun()
	require.NoError(t, err)
	assert.False(t, first)
}

func TestMasterPasswordUpsert(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.StoreMasterPassword("hash-v1", []byte("salt1")))
	require.NoError(t, s.StoreMasterPassword("hash-v2", []byte("salt2")))

	hash, salt, err := s.GetMasterPassword()
	require.NoError(t, err)
	assert.Equal(t, "hash-v2", hash)
	assert.Equal(t, []byte("salt2"), salt)
}

func TestGetMasterPasswordNoRows(t *testing.T) {
	s := openTestStore(t)
	_, _, err := s.GetMasterPassword()
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUnlockAttempts(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RecordUnlockAttempt(false))
	require.NoError(t, s.RecordUnlockAttempt(false))
	require.NoError(t, s.RecordUnlockAttempt(true))

	attempts, err := s.RecentUnlockAttempts(1)
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.True(t, attempts[0].Success, "newest-first ordering")

	require.NoError(t, s.CleanOldUnlockAttempts())
	attempts, err = s.RecentUnlockAttempts(1)
	require.NoError(t, err)
	assert.Len(t, attempts, 3, "attempts are recent, clean should not remove them")
}

func TestConnectionCRUD(t *testing.T) {
	s := openTestStore(t)

	folder := "work"
	c, err := s.CreateConnection(NewConnectionInput{
		Name:                 "box-a",
		Protocol:             "ssh",
		Hostname:             "example.com",
		Port:                 22,
		Username:             "alice",
		EncryptedCredentials: []byte{1, 2, 3},
		Nonce:                []byte{4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		Folder:               &folder,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	fetched, err := s.GetConnection(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "box-a", fetched.Name)

	all, err := s.GetAllConnections()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	byFolder, err := s.GetConnectionsByFolder("work")
	require.NoError(t, err)
	assert.Len(t, byFolder, 1)

	newName := "box-a-renamed"
	keepAlive := "enabled"
	updated, err := s.UpdateConnection(c.ID, UpdateConnectionInput{
		Name:      &newName,
		KeepAlive: OptionalField[string]{Set: true, Value: &keepAlive},
	})
	require.NoError(t, err)
	assert.Equal(t, "box-a-renamed", updated.Name)
	require.NotNil(t, updated.KeepAlive)
	assert.Equal(t, "enabled", *updated.KeepAlive)

	// explicit-null clears a previously set keep-alive override
	cleared, err := s.UpdateConnection(c.ID, UpdateConnectionInput{
		KeepAlive: OptionalField[string]{Set: true, Value: nil},
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.KeepAlive)

	require.NoError(t, s.UpdateLastUsed(c.ID))
	touched, err := s.GetConnection(c.ID)
	require.NoError(t, err)
	assert.NotNil(t, touched.LastUsedAt)

	require.NoError(t, s.DeleteConnection(c.ID))
	_, err = s.GetConnection(c.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestKnownHosts(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AddHostKey("example.com", 22, "ssh-ed25519", "SHA256:abc", []byte("key-bytes")))

	found, err := s.FindKnownHost("example.com", 22)
	require.NoError(t, err)
	assert.Equal(t, "SHA256:abc", found.Fingerprint)

	require.NoError(t, s.AddHostKey("example.com", 22, "ssh-ed25519", "SHA256:changed", []byte("new-key-bytes")))
	found, err = s.FindKnownHost("example.com", 22)
	require.NoError(t, err)
	assert.Equal(t, "SHA256:changed", found.Fingerprint, "AddHostKey replaces rather than duplicating")

	list, err := s.ListKnownHosts()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.RemoveHostKey("example.com", 22))
	_, err = s.FindKnownHost("example.com", 22)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSettingsDefaultMode(t *testing.T) {
	s := openTestStore(t)

	mode, err := s.HostKeyVerificationMode()
	require.NoError(t, err)
	assert.Equal(t, "strict", mode)

	require.NoError(t, s.SetSetting("host_key_verification_mode", "warn"))
	mode, err = s.HostKeyVerificationMode()
	require.NoError(t, err)
	assert.Equal(t, "warn", mode)
}

func TestReset(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.StoreMasterPassword("hash", []byte("salt")))
	_, err := s.CreateConnection(NewConnectionInput{
		Name: "a", Protocol: "ssh", Hostname: "h", Port: 22, Username: "u",
		EncryptedCredentials: []byte{1}, Nonce: []byte{2},
	})
	require.NoError(t, err)
	require.NoError(t, s.RecordUnlockAttempt(true))

	require.NoError(t, s.Reset(context.Background()))

	first, err := s.IsFirstRun()
	require.NoError(t, err)
	assert.True(t, first)

	conns, err := s.GetAllConnections()
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func TestCreateBackup(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.StoreMasterPassword("hash", []byte("salt")))

	backupPath := filepath.Join(t.TempDir(), "backup.db")
	require.NoError(t, s.CreateBackup(backupPath))

	restored, err := Open(backupPath, testKey())
	require.NoError(t, err)
	defer restored.Close()

	_, _, err = restored.GetMasterPassword()
	assert.NoError(t, err)
}
