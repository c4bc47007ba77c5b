package sshconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestParseSimpleHost(t *testing.T) {
	path := writeConfig(t, "\nHost myserver\n    HostName 192.168.1.100\n    User admin\n    Port 2222\n")

	entries, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "myserver", entries[0].Host)
	require.NotNil(t, entries[0].Hostname)
	assert.Equal(t, "192.168.1.100", *entries[0].Hostname)
	require.NotNil(t, entries[0].User)
	assert.Equal(t, "admin", *entries[0].User)
	require.NotNil(t, entries[0].Port)
	assert.Equal(t, 2222, *entries[0].Port)
}

func TestParseWithIdentityFile(t *testing.T) {
	path := writeConfig(t, "\nHost production\n    HostName prod.example.com\n    User deploy\n    IdentityFile ~/.ssh/prod_key\n")

	entries, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].IdentityFile)
	assert.Equal(t, "~/.ssh/prod_key", *entries[0].IdentityFile)
}

func TestParseFirstIdentityFileWins(t *testing.T) {
	path := writeConfig(t, "Host x\n    IdentityFile ~/.ssh/first\n    IdentityFile ~/.ssh/second\n")

	entries, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "~/.ssh/first", *entries[0].IdentityFile)
}

func TestParseSkipsWildcardHosts(t *testing.T) {
	path := writeConfig(t, "\nHost production-*\n    User deploy\n\nHost myserver\n    HostName 192.168.1.100\n")

	entries, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "myserver", entries[0].Host)
}

func TestParseIgnoresCommentsAndBlankLines(t *testing.T) {
	path := writeConfig(t, "# a comment\n\nHost myserver\n    # indented comment\n    HostName 192.168.1.100\n")

	entries, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestToConnectionInputDefaultsToPasswordAuth(t *testing.T) {
	entry := Entry{Host: "myserver"}
	input := entry.ToConnectionInput()
	assert.Equal(t, "password", input.Auth.Kind)
	assert.Equal(t, "root", input.Username)
	assert.Equal(t, 22, input.Port)
	assert.Equal(t, "myserver", input.Hostname)
}

func TestToConnectionInputUsesPublicKeyWhenIdentityFileSet(t *testing.T) {
	key := "~/.ssh/id_ed25519"
	entry := Entry{Host: "myserver", IdentityFile: &key}
	input := entry.ToConnectionInput()
	assert.Equal(t, "public_key", input.Auth.Kind)
	assert.NotContains(t, input.Auth.KeyPath, "~")
}

func TestPreviewOmitsDefaultPort(t *testing.T) {
	user := "admin"
	entry := Entry{Host: "myserver", User: &user}
	assert.Equal(t, "admin@myserver", entry.Preview())
}

func TestPreviewIncludesNonDefaultPort(t *testing.T) {
	port := 2222
	entry := Entry{Host: "myserver", Port: &port}
	assert.Equal(t, "myserver:2222", entry.Preview())
}

func TestDefaultPathUsesHomeEnv(t *testing.T) {
	t.Setenv("HOME", "/home/test")
	assert.Equal(t, "/home/test/.ssh/config", DefaultPath())
}
