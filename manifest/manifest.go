// Package manifest handles sc3.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/chazu/sc3/pkg/container"
	"github.com/chazu/sc3/pkg/sc3"
)

// FileName is the manifest file looked up in project directories.
const FileName = "sc3.toml"

// Manifest represents an sc3.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Input   Input   `toml:"input"`
	Output  Output  `toml:"output"`
	Symbols Symbols `toml:"symbols"`

	// Dir is the directory containing the sc3.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name"`
}

// Input configures where scripts are read from.
type Input struct {
	Dir          string   `toml:"dir"`
	Ignore       []string `toml:"ignore"`
	IgnorePrefix []string `toml:"ignore-prefix"`
}

// Output configures what the decoder writes.
type Output struct {
	Dir     string `toml:"dir"`
	Listing bool   `toml:"listing"`
	CBOR    bool   `toml:"cbor"`
	Catalog string `toml:"catalog"`
	Workers int    `toml:"workers"`
}

// Symbols holds project specific names for variables and their values.
// Enum keys are integers written as TOML keys, e.g. "1" or "0x1f".
type Symbols struct {
	Aliases map[string]string            `toml:"aliases"`
	Enums   map[string]map[string]string `toml:"enums"`
}

// Default returns the configuration used when no sc3.toml exists.
func Default() *Manifest {
	return &Manifest{
		Input: Input{
			Dir:          ".",
			Ignore:       append([]string(nil), container.DefaultIgnore...),
			IgnorePrefix: append([]string(nil), container.DefaultIgnorePrefix...),
		},
		Output: Output{
			Dir:     "decoded",
			Listing: true,
			CBOR:    true,
			Workers: runtime.GOMAXPROCS(0),
		},
		Dir: ".",
	}
}

// Load parses the sc3.toml file in the given directory.
func Load(dir string) (*Manifest, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses a manifest file. Keys missing from the file keep their
// Default values.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	if m.Output.Workers <= 0 {
		m.Output.Workers = runtime.GOMAXPROCS(0)
	}
	if _, err := m.Enums(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// FindAndLoad walks up from startDir to find an sc3.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// InputPath returns the absolute script directory.
func (m *Manifest) InputPath() string {
	return m.resolve(m.Input.Dir)
}

// OutputPath returns the absolute output directory.
func (m *Manifest) OutputPath() string {
	return m.resolve(m.Output.Dir)
}

// CatalogPath returns the absolute catalog database path, or "" when the
// catalog is disabled.
func (m *Manifest) CatalogPath() string {
	if m.Output.Catalog == "" {
		return ""
	}
	return m.resolve(m.Output.Catalog)
}

// Ignored reports whether a script file is skipped.
func (m *Manifest) Ignored(name string) bool {
	return container.Ignored(name, m.Input.Ignore, m.Input.IgnorePrefix)
}

// Enums returns the enum tables with integer keys.
func (m *Manifest) Enums() (map[string]map[int]string, error) {
	out := make(map[string]map[int]string, len(m.Symbols.Enums))
	for variable, values := range m.Symbols.Enums {
		table := make(map[int]string, len(values))
		for key, name := range values {
			v, err := strconv.ParseInt(key, 0, 32)
			if err != nil {
				return nil, fmt.Errorf("symbols.enums.%s: key %q is not an integer", variable, key)
			}
			table[int(v)] = name
		}
		out[variable] = table
	}
	return out, nil
}

// SymbolTable layers the manifest's aliases and enums over base.
func (m *Manifest) SymbolTable(base *sc3.SymbolTable) (*sc3.SymbolTable, error) {
	enums, err := m.Enums()
	if err != nil {
		return nil, err
	}
	return base.With(m.Symbols.Aliases, enums), nil
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
