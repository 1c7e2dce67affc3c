// Package archive opens content packs: zip containers of named blobs looked
// up by exact path.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/milk9111/commscreen/common"
)

var (
	// ErrIO reports that a content pack could not be located, copied or opened.
	ErrIO = errors.New("archive: i/o failure")
	// ErrNotFound reports a missing entry.
	ErrNotFound = errors.New("archive: entry not found")
)

// Archive is a read-only, random-access view of a content pack. It is safe
// for concurrent reads.
type Archive struct {
	name    string
	reader  *zip.Reader
	closer  io.Closer
	names   []string
	entries map[string]*zip.File
}

// NewArchive reads the zip directory from r. The caller keeps ownership of r.
func NewArchive(r io.ReaderAt, size int64, name string) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w: %w", name, ErrIO, err)
	}
	return newArchive(name, zr, nil), nil
}

func newArchive(name string, zr *zip.Reader, closer io.Closer) *Archive {
	a := &Archive{
		name:    name,
		reader:  zr,
		closer:  closer,
		names:   make([]string, 0, len(zr.File)),
		entries: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// first entry wins on duplicate names, like a central-directory lookup
		if _, dup := a.entries[f.Name]; dup {
			continue
		}
		a.names = append(a.names, f.Name)
		a.entries[f.Name] = f
	}
	common.Logger().Debug("archive opened", "name", name, "entries", len(a.names))
	return a
}

// Name returns the name the archive was opened under.
func (a *Archive) Name() string { return a.name }

// Entries returns every entry name in archive order.
func (a *Archive) Entries() []string {
	return append([]string(nil), a.names...)
}

// ListEntries returns the names fully matching pattern, in archive order.
func (a *Archive) ListEntries(pattern string) ([]string, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("archive: pattern %q: %w", pattern, err)
	}
	var out []string
	for _, name := range a.names {
		if re.MatchString(name) {
			out = append(out, name)
		}
	}
	return out, nil
}

// ReadEntry returns the full contents of the named entry.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	f, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("archive: read %s: %w", name, ErrNotFound)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("archive: read %s: %w: %w", name, ErrIO, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("archive: read %s: %w: %w", name, ErrIO, err)
	}
	return data, nil
}

// Close releases the underlying file, if the archive owns one.
func (a *Archive) Close() error {
	if a == nil || a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}
