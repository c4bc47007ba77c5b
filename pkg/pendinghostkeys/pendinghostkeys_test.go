package pendinghostkeys

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptRoundTrip(t *testing.T) {
	m := New()
	info := Info{Host: "example.com", Port: 22, KeyType: "ssh-ed25519", Fingerprint: "SHA256:abc", PublicKey: []byte("key")}
	m.AddPending(info)

	assert.False(t, m.IsAccepted(info.Host, info.Port))

	got, ok := m.Accept(info.Host, info.Port)
	require.True(t, ok)
	assert.Equal(t, info, got)
	assert.True(t, m.IsAccepted(info.Host, info.Port))
}

func TestAcceptWithoutPendingFails(t *testing.T) {
	m := New()
	_, ok := m.Accept("nowhere", 22)
	assert.False(t, ok)
}

func TestAcceptExpiresAfterTTL(t *testing.T) {
	m := New()
	m.AddPending(Info{Host: "h", Port: 22})
	_, ok := m.Accept("h", 22)
	require.True(t, ok)

	m.mu.Lock()
	m.accepted[hostPort{"h", 22}] = time.Now().Add(-TTL - time.Second)
	m.mu.Unlock()

	assert.False(t, m.IsAccepted("h", 22))
}

func TestRejectDiscardsPending(t *testing.T) {
	m := New()
	m.AddPending(Info{Host: "h", Port: 22})
	m.Reject("h", 22)
	_, ok := m.Accept("h", 22)
	assert.False(t, ok)
}

func TestCleanupExpiredEvictsOldEntries(t *testing.T) {
	m := New()
	m.AddPending(Info{Host: "h", Port: 22})
	m.Accept("h", 22)

	m.mu.Lock()
	m.accepted[hostPort{"h", 22}] = time.Now().Add(-TTL - time.Second)
	m.mu.Unlock()

	m.CleanupExpired()

	m.mu.Lock()
	_, stillThere := m.accepted[hostPort{"h", 22}]
	m.mu.Unlock()
	assert.False(t, stillThere)
}
