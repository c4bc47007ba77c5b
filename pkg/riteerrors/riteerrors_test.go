package riteerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageIncludesKind(t *testing.T) {
	err := New(KindLocked, "vault is locked")
	assert.Contains(t, err.Error(), "locked")
	assert.Contains(t, err.Error(), "vault is locked")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindMigrationFailed, cause, "could not apply migration")
	assert.ErrorIs(t, err, cause)
}

func TestCodeIsStable(t *testing.T) {
	assert.Equal(t, -32003, New(KindLocked, "").Code())
	assert.Equal(t, -32000, New(Kind("made_up"), "").Code())
}

func TestIsMatchesByKind(t *testing.T) {
	a := New(KindNotFound, "connection missing")
	b := New(KindNotFound, "different message, same kind")
	assert.True(t, errors.Is(a, b))

	c := New(KindAuthFailed, "wrong key")
	assert.False(t, errors.Is(a, c))
}

func TestWithFieldChains(t *testing.T) {
	err := New(KindInvalidInput, "bad port").WithField("port", 70000)
	assert.Equal(t, 70000, err.Fields["port"])
}
