package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultTheme(t *testing.T) {
	th, err := Load("default")
	require.NoError(t, err)
	assert.Equal(t, "RITE Default", th.Metadata.Name)
	assert.Equal(t, "#1e1e2e", th.Colors.Background)
	assert.Equal(t, "#cdd6f4", th.Colors.Foreground)
	assert.Equal(t, "JetBrains Mono", th.Terminal.FontFamily)
	assert.Equal(t, 14, th.Terminal.FontSize)
}

func TestLoadRiteDefaultAlias(t *testing.T) {
	th, err := Load("RITE Default")
	require.NoError(t, err)
	assert.Equal(t, "RITE Default", th.Metadata.Name)
}

func TestLoadBundledNonDefaultTheme(t *testing.T) {
	th, err := Load("nord")
	require.NoError(t, err)
	assert.Equal(t, "Nord", th.Metadata.Name)
	assert.Equal(t, "#2e3440", th.Colors.Background)
}

func TestLoadUnknownThemeReturnsNotFound(t *testing.T) {
	_, err := Load("does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not_found")
}

func TestLoadPrefersUserOverrideOverBundled(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	themesDir := filepath.Join(dir, "rite", "themes")
	require.NoError(t, os.MkdirAll(themesDir, 0o700))
	override := "[metadata]\nname = \"Custom Default\"\nauthor = \"me\"\nversion = \"1.0.0\"\n\n[colors]\nbackground = \"#000000\"\nforeground = \"#ffffff\"\ncursor = \"#ffffff\"\nselection = \"#333333\"\nblack = \"#000000\"\nred = \"#ff0000\"\ngreen = \"#00ff00\"\nyellow = \"#ffff00\"\nblue = \"#0000ff\"\nmagenta = \"#ff00ff\"\ncyan = \"#00ffff\"\nwhite = \"#ffffff\"\nbright_black = \"#000000\"\nbright_red = \"#ff0000\"\nbright_green = \"#00ff00\"\nbright_yellow = \"#ffff00\"\nbright_blue = \"#0000ff\"\nbright_magenta = \"#ff00ff\"\nbright_cyan = \"#00ffff\"\nbright_white = \"#ffffff\"\n\n[terminal]\nfont_family = \"Custom\"\nfont_size = 12\nline_height = 1.0\n\n[ui]\naccent = \"#000000\"\nborder = \"#000000\"\nhover = \"#000000\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(themesDir, "default.toml"), []byte(override), 0o600))

	th, err := Load("default")
	require.NoError(t, err)
	assert.Equal(t, "Custom Default", th.Metadata.Name)
	assert.Equal(t, "Custom", th.Terminal.FontFamily)
}

func TestListAlwaysIncludesDefault(t *testing.T) {
	names := List()
	assert.Contains(t, names, "default")
}

func TestListIncludesUserDirectoryAdditions(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	themesDir := filepath.Join(dir, "rite", "themes")
	require.NoError(t, os.MkdirAll(themesDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(themesDir, "solarized.toml"), []byte("[metadata]\nname = \"Solarized\"\n"), 0o600))

	names := List()
	assert.Contains(t, names, "solarized")
	assert.Contains(t, names, "default")
}

func TestListDeduplicatesUserOverrideOfBundledName(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	themesDir := filepath.Join(dir, "rite", "themes")
	require.NoError(t, os.MkdirAll(themesDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(themesDir, "nord.toml"), []byte("[metadata]\nname = \"Nord Override\"\n"), 0o600))

	names := List()
	count := 0
	for _, n := range names {
		if n == "nord" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
