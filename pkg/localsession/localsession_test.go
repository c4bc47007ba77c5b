package localsession

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveShellPrefersRequestedWhenItExists(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "myshell")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755))

	got, err := resolveShell(fake)
	require.NoError(t, err)
	assert.Equal(t, fake, got)
}

func TestResolveShellFallsBackWhenRequestedMissing(t *testing.T) {
	got, err := resolveShell("/no/such/shell")
	require.NoError(t, err)
	assert.True(t, pathExists(got))
}

func TestResolveShellErrorsWhenNothingUsable(t *testing.T) {
	old := shellFallbacks
	shellFallbacks = []string{"/no/such/a", "/no/such/b"}
	t.Cleanup(func() { shellFallbacks = old })
	t.Setenv("SHELL", "/no/such/shell")

	_, err := resolveShell("/no/such/requested")
	assert.Error(t, err)
}

func TestFishEnvIncludesQueryTermSuppression(t *testing.T) {
	env := fishEnv()
	assert.Contains(t, env, "fish_features=no-query-term")
}

func TestExitCodeFromWaitReportsNonZeroStatus(t *testing.T) {
	cmd := exec.Command("false")
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("no 'false' binary on PATH")
	}
	waitErr := cmd.Run()
	code := exitCodeFromWait(waitErr)
	require.NotNil(t, code)
	assert.Equal(t, 1, *code)
}

func TestExitCodeFromWaitNilIsZero(t *testing.T) {
	code := exitCodeFromWait(nil)
	require.NotNil(t, code)
	assert.Equal(t, 0, *code)
}
