// Package screen assembles a running comm screen from a config: descriptor
// table, content pack, frame catalog and animation engine.
package screen

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/milk9111/commscreen/anim"
	"github.com/milk9111/commscreen/archive"
	"github.com/milk9111/commscreen/common"
	"github.com/milk9111/commscreen/config"
	"github.com/milk9111/commscreen/content"
	"github.com/milk9111/commscreen/prefabs"
)

// ErrNoArchive reports a config without a content pack path.
var ErrNoArchive = errors.New("screen: no content pack configured")

// Screen is a built comm screen ready to tick.
type Screen struct {
	Race    string
	Aliases []string
	Archive *archive.Archive
	Catalog *content.Catalog
	Engine  *anim.Engine
}

// PackRef resolves the configured content pack. A directory is searched for
// its first .zip, which is then read as a stream and cached.
func PackRef(path string) (archive.Ref, error) {
	if path == "" {
		return archive.Ref{}, ErrNoArchive
	}
	info, err := os.Stat(path)
	if err != nil {
		return archive.Ref{}, fmt.Errorf("screen: content pack %s: %w: %w", path, archive.ErrIO, err)
	}
	if !info.IsDir() {
		return archive.FileRef(path), nil
	}
	fsys := os.DirFS(path)
	name, err := archive.FindAsset(fsys, ".zip")
	if err != nil {
		return archive.Ref{}, fmt.Errorf("screen: content pack dir %s: %w", path, err)
	}
	return archive.FSRef(fsys, name), nil
}

// Open builds the screen of cfg.Race with the engine clock starting at now.
func Open(cfg config.Config, store *archive.Store, now int64) (*Screen, error) {
	spec, err := prefabs.LoadRaceSpec(cfg.TablesDir, cfg.Race)
	if err != nil {
		return nil, err
	}
	descs, err := spec.Descriptors()
	if err != nil {
		return nil, err
	}

	ref, err := PackRef(cfg.Archive)
	if err != nil {
		return nil, err
	}
	arc, err := store.Open(ref)
	if err != nil {
		return nil, err
	}

	aliases := spec.Aliases()
	cat, err := content.Build(arc, aliases)
	if err != nil {
		_ = arc.Close()
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	eng, err := anim.New(cat.Frames, descs,
		anim.WithRand(anim.NewRand(seed)),
		anim.WithStart(now),
		anim.WithFrameInterval(cfg.FrameInterval),
	)
	if err != nil {
		_ = arc.Close()
		return nil, err
	}

	common.Logger().Info("screen: ready", "race", spec.Name, "manifest", cat.Manifest, "alias", cat.Alias, "frames", cat.Len(), "tracks", len(descs))
	return &Screen{Race: spec.Name, Aliases: aliases, Archive: arc, Catalog: cat, Engine: eng}, nil
}

// Close releases the content pack. The engine stays usable since frames
// are decoded up front.
func (s *Screen) Close() error {
	if s == nil || s.Archive == nil {
		return nil
	}
	return s.Archive.Close()
}
