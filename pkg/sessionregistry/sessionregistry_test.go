package sessionregistry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	inputs  [][]byte
	resizes [][2]int
	closed  bool
}

func (f *fakeSession) SendInput(data []byte) error {
	f.inputs = append(f.inputs, data)
	return nil
}

func (f *fakeSession) Resize(cols, rows int) error {
	f.resizes = append(f.resizes, [2]int{cols, rows})
	return nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func newTestRegistry() (*Registry, *fakeSession) {
	r := New(nil, nil, nil)
	fake := &fakeSession{}
	r.sessions["sess-1"] = entry{session: fake, kind: "local"}
	return r, fake
}

func TestSendInputRoutesToSession(t *testing.T) {
	r, fake := newTestRegistry()
	require.NoError(t, r.SendInput("sess-1", []byte("ls\n")))
	require.Len(t, fake.inputs, 1)
	assert.Equal(t, []byte("ls\n"), fake.inputs[0])
}

func TestSendInputUnknownSessionFails(t *testing.T) {
	r, _ := newTestRegistry()
	err := r.SendInput("nope", []byte("x"))
	assert.Error(t, err)
}

func TestResizeRoutesToSession(t *testing.T) {
	r, fake := newTestRegistry()
	require.NoError(t, r.Resize("sess-1", 120, 40))
	require.Len(t, fake.resizes, 1)
	assert.Equal(t, [2]int{120, 40}, fake.resizes[0])
}

func TestCloseRemovesFromRegistryAndClosesSession(t *testing.T) {
	r, fake := newTestRegistry()
	require.NoError(t, r.Close("sess-1"))
	assert.True(t, fake.closed)

	err := r.SendInput("sess-1", []byte("x"))
	assert.Error(t, err, "closed session must be removed from the registry")
}

func TestListReturnsActiveSessions(t *testing.T) {
	r, _ := newTestRegistry()
	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, "sess-1", list[0].ID)
	assert.Equal(t, "local", list[0].Kind)
}

func TestCloseAllClosesEverySession(t *testing.T) {
	r, fake := newTestRegistry()
	r.CloseAll()
	assert.True(t, fake.closed)
	assert.Empty(t, r.List())
}

func TestResolveKeepAliveDisabledWhenOverrideNilOrDisabled(t *testing.T) {
	assert.Zero(t, resolveKeepAlive(nil, nil))
	disabled := "disabled"
	assert.Zero(t, resolveKeepAlive(&disabled, nil))
}

func TestResolveKeepAliveDefaultsTo30SecondsWhenEnabledWithoutInterval(t *testing.T) {
	enabled := "enabled"
	assert.Equal(t, defaultKeepAliveInterval, resolveKeepAlive(&enabled, nil))
}

func TestResolveKeepAliveUsesExplicitInterval(t *testing.T) {
	enabled := "enabled"
	interval := 45
	assert.Equal(t, 45*time.Second, resolveKeepAlive(&enabled, &interval))
}
