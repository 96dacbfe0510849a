package prefabs

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
)

// Specs and falloff scripts ship as embedded defaults; a prefabs/ directory
// next to the binary overrides them file by file, so both can be edited live
// while a Watcher reports the changes.
//
//go:embed *.yaml scripts/*.tengo
var defaults embed.FS

// Load reads a spec by name ("planet.yaml", with or without a prefabs/
// prefix), preferring the disk override over the embedded default.
func Load(name string) ([]byte, error) {
	return read(normalize(name))
}

// LoadScript reads a falloff script by name, resolved under scripts/.
func LoadScript(name string) ([]byte, error) {
	n := normalize(name)
	if !strings.HasPrefix(n, "scripts/") {
		n = "scripts/" + n
	}
	return read(n)
}

func read(rel string) ([]byte, error) {
	if data, err := os.ReadFile(filepath.Join("prefabs", filepath.FromSlash(rel))); err == nil {
		return data, nil
	}
	return defaults.ReadFile(rel)
}

// normalize strips a leading prefabs/ so watcher-reported paths load as-is.
func normalize(name string) string {
	return strings.TrimPrefix(filepath.ToSlash(name), "prefabs/")
}
