package connections

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorclaw/bridge/pkg/audit"
	"github.com/armorclaw/bridge/pkg/logger"
	"github.com/armorclaw/bridge/pkg/vault"
	"github.com/armorclaw/bridge/pkg/vaultstore"
)

const strongPassword = "Xk9#mQ7$wZ2@LpVn"

func newUnlockedManager(t *testing.T) *Manager {
	t.Helper()
	store, err := vaultstore.Open(filepath.Join(t.TempDir(), "vault.db"), make([]byte, 32))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l, err := logger.New(logger.Config{Level: "error", Format: "json", Output: "stderr", Component: "connections-test"})
	require.NoError(t, err)
	securityLog := logger.NewSecurityLogger(l)
	auditLog := audit.NewCriticalOperationLogger(audit.NewTamperEvidentLog(audit.TamperEvidentConfig{Enabled: true}))

	v, err := vault.New(store, securityLog, auditLog, nil)
	require.NoError(t, err)
	require.NoError(t, v.SetupMasterPassword(context.Background(), strongPassword))

	return New(store, v)
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	m := newUnlockedManager(t)

	created, err := m.Create(NewConnectionInput{
		Name: "db", Protocol: "ssh", Hostname: "h", Port: 22, Username: "u",
		Auth: AuthMethod{Kind: "password", Password: "p"},
	})
	require.NoError(t, err)

	fetched, err := m.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, AuthMethod{Kind: "password", Password: "p"}, fetched.Auth)
}

func TestGetAllDoesNotDecrypt(t *testing.T) {
	m := newUnlockedManager(t)

	_, err := m.Create(NewConnectionInput{
		Name: "db", Protocol: "ssh", Hostname: "h", Port: 22, Username: "u",
		Auth: AuthMethod{Kind: "password", Password: "secret"},
	})
	require.NoError(t, err)

	summaries, err := m.GetAll()
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "password", summaries[0].AuthType)
}

func TestCreateRejectsInvalidPort(t *testing.T) {
	m := newUnlockedManager(t)
	_, err := m.Create(NewConnectionInput{Name: "x", Protocol: "ssh", Hostname: "h", Port: 70000, Username: "u"})
	assert.Error(t, err)
}

func TestUpdateMergesAndReencrypts(t *testing.T) {
	m := newUnlockedManager(t)

	created, err := m.Create(NewConnectionInput{
		Name: "db", Protocol: "ssh", Hostname: "h", Port: 22, Username: "u",
		Auth: AuthMethod{Kind: "password", Password: "p"},
	})
	require.NoError(t, err)

	newAuth := AuthMethod{Kind: "password", Password: "new-password"}
	updated, err := m.Update(created.ID, UpdateInput{Auth: &newAuth})
	require.NoError(t, err)
	assert.Equal(t, "new-password", updated.Auth.Password)
}

func TestMarkUsedAndDelete(t *testing.T) {
	m := newUnlockedManager(t)

	created, err := m.Create(NewConnectionInput{Name: "db", Protocol: "ssh", Hostname: "h", Port: 22, Username: "u"})
	require.NoError(t, err)

	require.NoError(t, m.MarkUsed(created.ID))
	require.NoError(t, m.Delete(created.ID))

	_, err = m.Get(created.ID)
	assert.Error(t, err)
}
