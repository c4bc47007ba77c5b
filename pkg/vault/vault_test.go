package vault

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorclaw/bridge/pkg/audit"
	"github.com/armorclaw/bridge/pkg/logger"
	"github.com/armorclaw/bridge/pkg/vaultstore"
)

const strongPassword = "Xk9#mQ7$wZ2@LpVn"

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	store, err := vaultstore.Open(filepath.Join(t.TempDir(), "vault.db"), make([]byte, 32))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l, err := logger.New(logger.Config{Level: "error", Format: "json", Output: "stderr", Component: "vault-test"})
	require.NoError(t, err)
	securityLog := logger.NewSecurityLogger(l)
	auditLog := audit.NewCriticalOperationLogger(audit.NewTamperEvidentLog(audit.TamperEvidentConfig{Enabled: true}))

	v, err := New(store, securityLog, auditLog, nil)
	require.NoError(t, err)
	return v
}

func TestInitialStateIsUnset(t *testing.T) {
	v := newTestVault(t)
	assert.Equal(t, StateUnset, v.State())
}

func TestSetupRejectsWeakPassword(t *testing.T) {
	v := newTestVault(t)
	err := v.SetupMasterPassword(context.Background(), "short")
	assert.Error(t, err)
	assert.Equal(t, StateUnset, v.State())
}

func TestSetupTransitionsToUnlocked(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.SetupMasterPassword(context.Background(), strongPassword))
	assert.Equal(t, StateUnlocked, v.State())

	key, err := v.GetMasterKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestLockThenUnlockRoundTrip(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.SetupMasterPassword(context.Background(), strongPassword))

	v.Lock(context.Background())
	assert.Equal(t, StateLocked, v.State())
	_, err := v.GetMasterKey()
	assert.ErrorIs(t, err, ErrLocked)

	result, err := v.Unlock(context.Background(), strongPassword)
	require.NoError(t, err)
	assert.Equal(t, UnlockSuccess, result.Outcome)
	assert.Equal(t, StateUnlocked, v.State())
}

func TestUnlockWrongPasswordStaysLocked(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.SetupMasterPassword(context.Background(), strongPassword))
	v.Lock(context.Background())

	result, err := v.Unlock(context.Background(), "totally wrong password")
	require.NoError(t, err)
	assert.Equal(t, UnlockInvalidPassword, result.Outcome)
	assert.Equal(t, StateLocked, v.State())
}

func TestUnlockRateLimitsAfterFiveFailures(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.SetupMasterPassword(context.Background(), strongPassword))
	v.Lock(context.Background())

	for i := 0; i < maxAttempts; i++ {
		result, err := v.Unlock(context.Background(), "wrong password")
		require.NoError(t, err)
		assert.Equal(t, UnlockInvalidPassword, result.Outcome)
	}

	result, err := v.Unlock(context.Background(), strongPassword)
	require.NoError(t, err)
	assert.Equal(t, UnlockRateLimited, result.Outcome)
	assert.Greater(t, result.WaitSeconds, 0)
}

func TestResetDatabaseReturnsToUnset(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.SetupMasterPassword(context.Background(), strongPassword))

	require.NoError(t, v.ResetDatabase(context.Background()))
	assert.Equal(t, StateUnset, v.State())
}
