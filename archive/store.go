package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/milk9111/commscreen/common"
)

// Ref names a content pack and how to reach it.
type Ref struct {
	// Name is the pack's file name; streaming refs are cached under it.
	Name string

	path string
	open func() (io.ReadCloser, error)
}

// FileRef refers to a pack already on random-access storage.
func FileRef(path string) Ref {
	return Ref{Name: filepath.Base(path), path: path}
}

// StreamRef refers to a pack that can only be read sequentially.
func StreamRef(name string, open func() (io.ReadCloser, error)) Ref {
	return Ref{Name: name, open: open}
}

// FSRef refers to a pack stored in fsys, such as an embedded asset tree.
func FSRef(fsys fs.FS, name string) Ref {
	return StreamRef(path.Base(name), func() (io.ReadCloser, error) {
		return fsys.Open(name)
	})
}

// Streaming reports whether the ref needs materializing before use.
func (r Ref) Streaming() bool { return r.open != nil }

func (r Ref) String() string {
	if r.path != "" {
		return r.path
	}
	return r.Name
}

// FindAsset returns the first top-level entry of fsys whose name ends in
// suffix.
func FindAsset(fsys fs.FS, suffix string) (string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return "", fmt.Errorf("archive: list assets: %w: %w", ErrIO, err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			return e.Name(), nil
		}
	}
	return "", fmt.Errorf("archive: no asset matching *%s: %w", suffix, ErrIO)
}

// Store opens content packs, materializing streaming sources into CacheDir.
type Store struct {
	CacheDir string
}

// NewStore returns a store caching into dir. An empty dir uses the user
// cache directory.
func NewStore(dir string) *Store {
	if dir == "" {
		if base, err := os.UserCacheDir(); err == nil {
			dir = filepath.Join(base, "commscreen")
		} else {
			dir = os.TempDir()
		}
	}
	return &Store{CacheDir: dir}
}

// Open opens the pack named by ref. Streaming refs are copied into the cache
// once; later opens reuse the copy.
func (s *Store) Open(ref Ref) (*Archive, error) {
	if !ref.Streaming() {
		if ref.path == "" {
			return nil, fmt.Errorf("archive: open: empty ref: %w", ErrIO)
		}
		return openFile(ref.path)
	}

	cached := s.cachePath(ref)
	if a, err := openFile(cached); err == nil {
		common.Logger().Debug("archive: cached content pack found", "path", cached)
		return a, nil
	} else if _, statErr := os.Stat(cached); statErr == nil {
		common.Logger().Warn("archive: cached content pack unusable, copying again", "path", cached, "err", err)
	}

	common.Logger().Info("archive: no cached content pack, copying", "ref", ref.String(), "path", cached)
	if err := s.materialize(ref, cached); err != nil {
		return nil, err
	}
	return openFile(cached)
}

func (s *Store) cachePath(ref Ref) string {
	return filepath.Join(s.CacheDir, filepath.Base(ref.Name))
}

func (s *Store) materialize(ref Ref, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("archive: cache dir: %w: %w", ErrIO, err)
	}

	src, err := ref.open()
	if err != nil {
		return fmt.Errorf("archive: open %s: %w: %w", ref, ErrIO, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("archive: cache %s: %w: %w", ref, ErrIO, err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpName, dst)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("archive: cache %s: %w: %w", ref, ErrIO, err)
	}
	common.Logger().Info("archive: content pack cached", "path", dst, "bytes", n)
	return nil
}

func openFile(p string) (*Archive, error) {
	rc, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w: %w", p, ErrIO, err)
	}
	return newArchive(p, &rc.Reader, rc), nil
}
