package manifest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/chazu/sc3/pkg/sc3"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[project]
name = "ever17"

[input]
dir = "script"
ignore = ["startup.scr"]
ignore-prefix = ["debug", "test"]

[output]
dir = "out"
listing = false
cbor = true
catalog = "out/catalog.db"
workers = 3

[symbols.aliases]
g_05 = "route"

[symbols.enums.g_05]
1 = "TAKESHI"
0x2 = "YOU"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "ever17" {
		t.Errorf("project name = %q, want ever17", m.Project.Name)
	}
	if m.InputPath() != filepath.Join(dir, "script") {
		t.Errorf("input path = %q", m.InputPath())
	}
	if m.OutputPath() != filepath.Join(dir, "out") {
		t.Errorf("output path = %q", m.OutputPath())
	}
	if m.CatalogPath() != filepath.Join(dir, "out", "catalog.db") {
		t.Errorf("catalog path = %q", m.CatalogPath())
	}
	if m.Output.Listing {
		t.Error("output listing = true, want false")
	}
	if m.Output.Workers != 3 {
		t.Errorf("workers = %d, want 3", m.Output.Workers)
	}
	if !m.Ignored("startup.scr") || !m.Ignored("test01.scr") || m.Ignored("system.scr") {
		t.Error("ignore lists not applied")
	}

	st, err := m.SymbolTable(sc3.DefaultSymbols)
	if err != nil {
		t.Fatalf("SymbolTable: %v", err)
	}
	if name, _ := st.ResolveVariableName(0xA4, 0x05); name != "route" {
		t.Errorf("alias = %q, want route", name)
	}
	if name, ok := st.EnumName("g_05", 2); !ok || name != "YOU" {
		t.Errorf("enum 2 = %q, want YOU", name)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[project]
name = "minimal"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.InputPath() != dir {
		t.Errorf("input path = %q, want %q", m.InputPath(), dir)
	}
	if !m.Output.Listing || !m.Output.CBOR {
		t.Error("listing and cbor should default to true")
	}
	if m.CatalogPath() != "" {
		t.Errorf("catalog path = %q, want disabled", m.CatalogPath())
	}
	if m.Output.Workers != runtime.GOMAXPROCS(0) {
		t.Errorf("workers = %d", m.Output.Workers)
	}
	if !m.Ignored("system.scr") || !m.Ignored("debug_room.scr") {
		t.Error("default ignore lists not applied")
	}
}

func TestLoadManifestBadEnumKey(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[symbols.enums.g_05]
one = "ONE"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected an error for a non-integer enum key")
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected an error for a missing manifest")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("[project]\nname = \"found\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil || m.Project.Name != "found" {
		t.Fatalf("manifest = %+v, want project found", m)
	}
	if m.Dir != root {
		t.Errorf("dir = %q, want %q", m.Dir, root)
	}
}
