package sshsession

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/armorclaw/bridge/pkg/audit"
	"github.com/armorclaw/bridge/pkg/eventsink"
	"github.com/armorclaw/bridge/pkg/knownhosts"
	"github.com/armorclaw/bridge/pkg/logger"
	"github.com/armorclaw/bridge/pkg/pendinghostkeys"
	"github.com/armorclaw/bridge/pkg/vaultstore"
)

func newTestEngine(t *testing.T) (*Engine, *vaultstore.Store) {
	t.Helper()
	store, err := vaultstore.Open(filepath.Join(t.TempDir(), "vault.db"), make([]byte, 32))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l, err := logger.New(logger.Config{Level: "error", Format: "json", Output: "stderr", Component: "sshsession-test"})
	require.NoError(t, err)
	securityLog := logger.NewSecurityLogger(l)
	auditLog := audit.NewCriticalOperationLogger(audit.NewTamperEvidentLog(audit.TamperEvidentConfig{Enabled: true}))

	sink := eventsink.NewEventSink(securityLog)
	require.NoError(t, sink.Start())
	t.Cleanup(sink.Stop)

	hosts := knownhosts.New(store)
	pending := pendinghostkeys.New()

	return New(hosts, pending, sink, securityLog, auditLog), store
}

func newTestPublicKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return sshPub
}

func TestHostKeyCallbackAcceptModeStoresSilently(t *testing.T) {
	e, store := newTestEngine(t)
	require.NoError(t, store.SetSetting("host_key_verification_mode", "accept"))

	cb := e.hostKeyCallback("example.com", 22, false)
	key := newTestPublicKey(t)
	require.NoError(t, cb("example.com:22", nil, key))

	entries, err := e.hosts.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "example.com", entries[0].Host)
}

func TestHostKeyCallbackStrictModeRejectsUnknownThenAcceptsAfterUIApproval(t *testing.T) {
	e, store := newTestEngine(t)
	require.NoError(t, store.SetSetting("host_key_verification_mode", "strict"))

	cb := e.hostKeyCallback("example.com", 22, false)
	key := newTestPublicKey(t)

	err := cb("example.com:22", nil, key)
	require.Error(t, err)

	entries, err2 := e.hosts.List()
	require.NoError(t, err2)
	assert.Empty(t, entries)

	_, ok := e.pending.Accept("example.com", 22)
	require.True(t, ok)

	require.NoError(t, cb("example.com:22", nil, key))
	entries, err = e.hosts.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestHostKeyCallbackWarnModeStoresAndReturnsNil(t *testing.T) {
	e, store := newTestEngine(t)
	require.NoError(t, store.SetSetting("host_key_verification_mode", "warn"))

	cb := e.hostKeyCallback("example.com", 22, false)
	require.NoError(t, cb("example.com:22", nil, newTestPublicKey(t)))

	entries, err := e.hosts.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestHostKeyCallbackRejectsChangedKeyRegardlessOfMode(t *testing.T) {
	e, store := newTestEngine(t)
	require.NoError(t, store.SetSetting("host_key_verification_mode", "accept"))

	cb := e.hostKeyCallback("example.com", 22, false)
	require.NoError(t, cb("example.com:22", nil, newTestPublicKey(t)))

	err := cb("example.com:22", nil, newTestPublicKey(t))
	require.Error(t, err)
}

func TestHostKeyCallbackForceAcceptRejectsChangedKey(t *testing.T) {
	e, store := newTestEngine(t)
	require.NoError(t, store.SetSetting("host_key_verification_mode", "strict"))

	cb := e.hostKeyCallback("example.com", 22, true)
	require.NoError(t, cb("example.com:22", nil, newTestPublicKey(t)))

	err := cb("example.com:22", nil, newTestPublicKey(t))
	require.Error(t, err)
}

func TestHostKeyCallbackForceAcceptBypassesStrictUnknown(t *testing.T) {
	e, store := newTestEngine(t)
	require.NoError(t, store.SetSetting("host_key_verification_mode", "strict"))

	cb := e.hostKeyCallback("example.com", 22, true)
	require.NoError(t, cb("example.com:22", nil, newTestPublicKey(t)))

	entries, err := e.hosts.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestClassifyDialErrorDetectsAuthFailure(t *testing.T) {
	err := classifyDialError(errors.New("ssh: handshake failed: ssh: unable to authenticate"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth_failed")
}

func TestExitCodeFromWaitNilIsZero(t *testing.T) {
	code := exitCodeFromWait(nil)
	require.NotNil(t, code)
	assert.Equal(t, 0, *code)
}

func TestExitCodeFromWaitUnknownErrorIsNil(t *testing.T) {
	code := exitCodeFromWait(errors.New("boom"))
	assert.Nil(t, code)
}

func TestContainsAnyMatchesDistroMarker(t *testing.T) {
	assert.True(t, containsAny([]byte("Welcome to Ubuntu 22.04"), motdMarkers))
	assert.False(t, containsAny([]byte("$ "), motdMarkers))
}
