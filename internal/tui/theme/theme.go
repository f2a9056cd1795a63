// Package theme loads the color themes of the booking grid.
package theme

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"
)

//go:embed embedded/*.toml
var builtin embed.FS

// DefaultName is the theme used when none is configured.
const DefaultName = "mocha"

// ErrInvalidColor is returned for a theme color that is not "#rrggbb".
var ErrInvalidColor = errors.New("invalid theme color")

// Theme holds the base colors of the grid as "#rrggbb" strings.
type Theme struct {
	Name        string `toml:"name"`
	Bg          string `toml:"bg"`
	BgHighlight string `toml:"bg_highlight"` // lead and trail hours
	BgSelection string `toml:"bg_selection"` // cursor
	Fg          string `toml:"fg"`
	FgMuted     string `toml:"fg_muted"`
	Accent      string `toml:"accent"` // title, selections, drop candidate
	Private     string `toml:"private"`
	Group       string `toml:"group"`
	Absence     string `toml:"absence"`
	Pending     string `toml:"pending"`
	Warning     string `toml:"warning"` // errors, blocked drop
}

// Load returns the theme called name. A name ending in ".toml" is read
// from disk with LoadFile; unknown built-in names fall back to mocha.
func Load(name string) (*Theme, error) {
	if strings.HasSuffix(name, ".toml") {
		return LoadFile(name)
	}
	name = strings.ToLower(name)
	if !IsAvailable(name) {
		name = DefaultName
	}
	t := &Theme{}
	if err := decodeBuiltin(name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadFile reads a user theme. Colors the file leaves out are taken from
// the default theme, so a file may override only a few of them.
func LoadFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading theme: %w", err)
	}

	t := &Theme{}
	if err := decodeBuiltin(DefaultName, t); err != nil {
		return nil, err
	}
	t.Name = strings.TrimSuffix(filepath.Base(path), ".toml")
	if err := toml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parsing theme %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("theme %s: %w", path, err)
	}
	return t, nil
}

func decodeBuiltin(name string, t *Theme) error {
	data, err := builtin.ReadFile("embedded/" + name + ".toml")
	if err != nil {
		return fmt.Errorf("loading theme %q: %w", name, err)
	}
	if err := toml.Unmarshal(data, t); err != nil {
		return fmt.Errorf("parsing theme %q: %w", name, err)
	}
	return nil
}

// Validate checks that every color is a hex triplet.
func (t *Theme) Validate() error {
	for _, c := range t.colors() {
		if _, err := colorful.Hex(c.value); err != nil || len(c.value) != 7 {
			return fmt.Errorf("%s = %q: %w", c.key, c.value, ErrInvalidColor)
		}
	}
	return nil
}

type namedColor struct {
	key   string
	value string
}

func (t *Theme) colors() []namedColor {
	return []namedColor{
		{"bg", t.Bg},
		{"bg_highlight", t.BgHighlight},
		{"bg_selection", t.BgSelection},
		{"fg", t.Fg},
		{"fg_muted", t.FgMuted},
		{"accent", t.Accent},
		{"private", t.Private},
		{"group", t.Group},
		{"absence", t.Absence},
		{"pending", t.Pending},
		{"warning", t.Warning},
	}
}

// Available returns the built-in theme names.
func Available() []string {
	return []string{"mocha", "macchiato", "frappe", "latte", "light"}
}

// IsAvailable reports whether name is a built-in theme or a theme file.
func IsAvailable(name string) bool {
	if strings.HasSuffix(name, ".toml") {
		return true
	}
	return slices.Contains(Available(), strings.ToLower(name))
}
