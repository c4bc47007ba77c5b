// Package theme loads terminal color schemes: a bundled catalog embedded
// into the binary, overridable per-name by TOML files in the user's config
// directory.
package theme

import (
	"embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/armorclaw/bridge/pkg/riteerrors"
)

//go:embed themes/*.toml
var bundled embed.FS

// Metadata identifies a theme and its provenance.
type Metadata struct {
	Name    string `toml:"name"`
	Author  string `toml:"author"`
	Version string `toml:"version"`
}

// Colors is the full 16-color ANSI palette plus the four UI-chrome colors
// every terminal theme needs.
type Colors struct {
	Background string `toml:"background"`
	Foreground string `toml:"foreground"`
	Cursor     string `toml:"cursor"`
	Selection  string `toml:"selection"`

	Black   string `toml:"black"`
	Red     string `toml:"red"`
	Green   string `toml:"green"`
	Yellow  string `toml:"yellow"`
	Blue    string `toml:"blue"`
	Magenta string `toml:"magenta"`
	Cyan    string `toml:"cyan"`
	White   string `toml:"white"`

	BrightBlack   string `toml:"bright_black"`
	BrightRed     string `toml:"bright_red"`
	BrightGreen   string `toml:"bright_green"`
	BrightYellow  string `toml:"bright_yellow"`
	BrightBlue    string `toml:"bright_blue"`
	BrightMagenta string `toml:"bright_magenta"`
	BrightCyan    string `toml:"bright_cyan"`
	BrightWhite   string `toml:"bright_white"`
}

// Terminal carries the font settings a theme pairs with its palette.
type Terminal struct {
	FontFamily string  `toml:"font_family"`
	FontSize   int     `toml:"font_size"`
	LineHeight float64 `toml:"line_height"`
}

// UI is the accent/border/hover palette for chrome outside the terminal.
type UI struct {
	Accent string `toml:"accent"`
	Border string `toml:"border"`
	Hover  string `toml:"hover"`
}

// Theme is one complete color scheme.
type Theme struct {
	Metadata Metadata `toml:"metadata"`
	Colors   Colors   `toml:"colors"`
	Terminal Terminal `toml:"terminal"`
	UI       UI       `toml:"ui"`
}

func userThemesDir() (string, bool) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, "rite", "themes"), true
}

func decode(data []byte) (Theme, error) {
	var t Theme
	if _, err := toml.Decode(string(data), &t); err != nil {
		return Theme{}, err
	}
	return t, nil
}

// Load resolves name against the user's theme directory first, then the
// bundled catalog. "RITE Default" is accepted as an alias for "default".
func Load(name string) (Theme, error) {
	if name == "RITE Default" {
		name = "default"
	}

	if dir, ok := userThemesDir(); ok {
		if data, err := os.ReadFile(filepath.Join(dir, name+".toml")); err == nil {
			if t, err := decode(data); err == nil {
				return t, nil
			}
		}
	}

	if data, err := bundled.ReadFile("themes/" + name + ".toml"); err == nil {
		if t, err := decode(data); err == nil {
			return t, nil
		}
	}

	return Theme{}, riteerrors.New(riteerrors.KindNotFound, "theme '"+name+"' not found")
}

// List returns every theme name available: the bundled catalog plus any
// user-directory overrides/additions, deduplicated.
func List() []string {
	seen := make(map[string]bool)
	var names []string

	addFrom := func(entries []os.DirEntry) {
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
				continue
			}
			name := strings.TrimSuffix(e.Name(), ".toml")
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	if bundledEntries, err := bundled.ReadDir("themes"); err == nil {
		addFrom(bundledEntries)
	}
	if dir, ok := userThemesDir(); ok {
		if userEntries, err := os.ReadDir(dir); err == nil {
			addFrom(userEntries)
		}
	}

	return names
}
