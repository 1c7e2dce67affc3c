package prefabs

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed *.yaml
var PrefabsFS embed.FS

// Load reads name from dir when it exists there and falls back to the
// embedded copy. An empty dir reads only the embedded files.
func Load(dir, name string) ([]byte, error) {
	clean := cleanPrefabPath(name)
	if dir != "" {
		if data, err := os.ReadFile(diskPrefabPath(dir, clean)); err == nil {
			return data, nil
		}
	}
	return PrefabsFS.ReadFile(clean)
}

// ModTime reports the modification time of the on-disk copy of name.
func ModTime(dir, name string) (time.Time, bool) {
	if dir == "" {
		return time.Time{}, false
	}
	info, err := os.Stat(diskPrefabPath(dir, cleanPrefabPath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func cleanPrefabPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		return after
	}
	return s
}

func diskPrefabPath(dir, clean string) string {
	return filepath.Join(dir, filepath.FromSlash(clean))
}
