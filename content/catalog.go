// Package content builds sprite catalogs from the .ani manifests inside a
// content pack.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"runtime"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/milk9111/commscreen/common"
)

// DefaultManifestPattern selects the comm-screen manifests of a content pack.
const DefaultManifestPattern = `.*comm/.*\.ani`

var (
	// ErrNotFound reports that no manifest matched any alias.
	ErrNotFound = errors.New("content: no manifest found")
	// ErrDecode reports a frame that could not be read or decoded.
	ErrDecode = errors.New("content: decode failed")
	// ErrManifest reports a malformed manifest.
	ErrManifest = errors.New("content: malformed manifest")
)

// Source is the subset of an archive the catalog reads from.
type Source interface {
	ListEntries(pattern string) ([]string, error)
	ReadEntry(name string) ([]byte, error)
}

// Frame is a decoded sprite and the canvas offset it is drawn at.
type Frame struct {
	Path    string
	Hotspot image.Point
	Image   image.Image
}

// Bounds returns the canvas rectangle the frame covers.
func (f Frame) Bounds() image.Rectangle {
	b := f.Image.Bounds()
	return image.Rectangle{Min: f.Hotspot, Max: f.Hotspot.Add(b.Size())}
}

// Catalog is the ordered frame list of one manifest. Frames[0] is the
// background.
type Catalog struct {
	Manifest string
	Alias    string
	Frames   []Frame
}

type options struct {
	pattern     string
	concurrency int
}

// Option configures Build.
type Option func(*options)

// WithManifestPattern overrides DefaultManifestPattern.
func WithManifestPattern(pattern string) Option {
	return func(o *options) { o.pattern = pattern }
}

// WithConcurrency bounds the number of frames decoded at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// Build finds the first manifest matching an alias and decodes every frame
// it lists. Aliases are tried in order; for each alias manifests are tried
// in archive order.
func Build(src Source, aliases []string, opts ...Option) (*Catalog, error) {
	o := options{pattern: DefaultManifestPattern, concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}

	manifests, err := src.ListEntries(o.pattern)
	if err != nil {
		return nil, fmt.Errorf("content: list manifests: %w", err)
	}

	manifest, alias, ok := findManifest(manifests, aliases)
	if !ok {
		return nil, fmt.Errorf("content: tried %v: %w", aliases, ErrNotFound)
	}
	common.Logger().Info("content: manifest selected", "manifest", manifest, "alias", alias)

	data, err := src.ReadEntry(manifest)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", manifest, err)
	}
	entries, err := ParseManifest(path.Dir(manifest), data)
	if err != nil {
		return nil, fmt.Errorf("content: %s: %w", manifest, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("content: %s: no frames: %w", manifest, ErrManifest)
	}

	frames, err := decodeAll(src, entries, o.concurrency)
	if err != nil {
		return nil, err
	}
	return &Catalog{Manifest: manifest, Alias: alias, Frames: frames}, nil
}

func findManifest(manifests, aliases []string) (string, string, bool) {
	for _, alias := range aliases {
		seg := "/" + alias + "/"
		for _, m := range manifests {
			if strings.Contains(m, seg) {
				return m, alias, true
			}
		}
	}
	return "", "", false
}

func decodeAll(src Source, entries []Entry, limit int) ([]Frame, error) {
	frames := make([]Frame, len(entries))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, e := range entries {
		g.Go(func() error {
			img, err := decode(src, e.Path)
			if err != nil {
				return err
			}
			frames[i] = Frame{Path: e.Path, Hotspot: e.Hotspot, Image: img}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

func decode(src Source, name string) (image.Image, error) {
	data, err := src.ReadEntry(name)
	if err != nil {
		return nil, fmt.Errorf("content: frame %s: %w: %w", name, ErrDecode, err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("content: could not decode %s: %w: %w", name, ErrDecode, err)
	}
	common.Logger().Debug("content: frame decoded", "path", name, "format", format, "size", img.Bounds().Size())
	return img, nil
}

// Len returns the number of frames.
func (c *Catalog) Len() int { return len(c.Frames) }

// Frame returns frame i.
func (c *Catalog) Frame(i int) Frame { return c.Frames[i] }

// Background returns frame 0.
func (c *Catalog) Background() Frame { return c.Frames[0] }

func (c *Catalog) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Catalog %s (alias %s) {\n", c.Manifest, c.Alias)
	for _, f := range c.Frames {
		size := f.Image.Bounds().Size()
		fmt.Fprintf(&b, "  %s hotspot(%d, %d) %dx%d\n", f.Path, f.Hotspot.X, f.Hotspot.Y, size.X, size.Y)
	}
	b.WriteString("}")
	return b.String()
}
