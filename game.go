package main

import (
	"fmt"
	"image"
	"log"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/image/colornames"

	"github.com/milk9111/commscreen/archive"
	"github.com/milk9111/commscreen/common"
	"github.com/milk9111/commscreen/config"
	"github.com/milk9111/commscreen/prefabs"
	"github.com/milk9111/commscreen/screen"
)

// backdropAlpha is the opacity of the fill-frame copy behind the raster.
const backdropAlpha = float32(0x7f) / 0xff

// Game is the ebiten game showing one race's comm screen.
type Game struct {
	cfg     config.Config
	store   *archive.Store
	watcher *prefabs.Watcher
	start   time.Time

	comm *screen.Screen
	img  *ebiten.Image
	due  int64
	err  error

	tableMod time.Time
	tableOK  bool

	size     image.Point
	offset   int
	panned   bool
	dragging bool
	anchor   int
}

// NewGame builds the comm screen described by cfg. A screen that fails to
// build leaves the game idle on a black background.
func NewGame(cfg config.Config, store *archive.Store, watcher *prefabs.Watcher) *Game {
	g := &Game{
		cfg:     cfg,
		store:   store,
		watcher: watcher,
		start:   time.Now(),
	}
	g.reload()
	return g
}

func (g *Game) now() int64 {
	return time.Since(g.start).Milliseconds()
}

func (g *Game) reload() {
	g.tableMod, g.tableOK = prefabs.TableModTime(g.cfg.TablesDir, g.cfg.Race)
	s, err := screen.Open(g.cfg, g.store, g.now())
	if old := g.comm; old != nil {
		_ = old.Close()
	}
	if g.img != nil {
		g.img.Deallocate()
	}
	g.comm, g.img, g.err = nil, nil, err
	if err != nil {
		log.Printf("failed to build %s comm screen: %v", g.cfg.Race, err)
		return
	}

	g.comm = s
	r := s.Engine.Raster().Bounds()
	g.img = ebiten.NewImage(r.Dx(), r.Dy())
	g.due = 0
	if !g.panned {
		g.offset = screen.CenterOffset(g.size, r.Size())
	}
}

func (g *Game) Update() error {
	if g.drainWatcher() && g.tableChanged() {
		common.Logger().Info("tables changed, rebuilding", "race", g.cfg.Race)
		g.reload()
	}
	g.pan()

	if g.comm == nil {
		return nil
	}
	now := g.now()
	if now >= g.due {
		raster, delay := g.comm.Engine.Tick(now)
		g.img.WritePixels(raster.Pix)
		g.due = now + int64(delay)
	}
	return nil
}

// drainWatcher consumes pending table events and reports whether one of
// them affects the current race.
func (g *Game) drainWatcher() bool {
	if g.watcher == nil {
		return false
	}
	changed := false
	for {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return changed
			}
			if prefabs.RaceOf(name) == strings.ToLower(g.cfg.Race) {
				changed = true
			}
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return changed
			}
			common.Logger().Warn("table watcher", "err", err)
		default:
			return changed
		}
	}
}

// tableChanged reports whether the race's table on disk differs from the one
// the current screen was built from.
func (g *Game) tableChanged() bool {
	mod, ok := prefabs.TableModTime(g.cfg.TablesDir, g.cfg.Race)
	return ok != g.tableOK || !mod.Equal(g.tableMod)
}

// pan drags the fill-height panorama with the left mouse button.
func (g *Game) pan() {
	if g.cfg.Scaling != config.ScaleFillHeight {
		return
	}
	x, _ := ebiten.CursorPosition()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.dragging = true
		g.anchor = x - g.offset
	}
	if !g.dragging {
		return
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.offset = x - g.anchor
		g.panned = true
		return
	}
	g.dragging = false
	if g.img != nil {
		g.offset = screen.ClampOffset(g.offset, g.size.X, screen.PanoramaWidth(g.size, g.img.Bounds().Size()))
	}
	common.Logger().Debug("panorama offset", "offset", g.offset)
}

func (g *Game) Draw(dst *ebiten.Image) {
	dst.Fill(colornames.Black)
	if g.img == nil {
		if g.cfg.Debug && g.err != nil {
			ebitenutil.DebugPrint(dst, g.err.Error())
		}
		return
	}

	rs := g.img.Bounds().Size()
	if g.cfg.FillFrame {
		drawInto(dst, g.img, screen.FillRect(g.cfg.Scaling, g.size, rs, g.offset), backdropAlpha, ebiten.FilterLinear)
	}
	drawInto(dst, g.img, screen.Placement(g.cfg.Scaling, g.size, rs, g.offset), 1, ebiten.FilterNearest)

	if g.cfg.Debug {
		ebitenutil.DebugPrint(dst, fmt.Sprintf("%s (%s)    FPS: %.2f    active: %#x",
			g.comm.Race, g.comm.Catalog.Alias, ebiten.ActualFPS(), uint32(g.comm.Engine.ActiveMask())))
	}
}

func drawInto(dst, src *ebiten.Image, r image.Rectangle, alpha float32, filter ebiten.Filter) {
	if r.Empty() {
		return
	}
	sz := src.Bounds().Size()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(r.Dx())/float64(sz.X), float64(r.Dy())/float64(sz.Y))
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	op.ColorScale.ScaleAlpha(alpha)
	op.Filter = filter
	dst.DrawImage(src, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	size := image.Pt(outsideWidth, outsideHeight)
	if size != g.size {
		g.size = size
		if g.img != nil && !g.panned {
			g.offset = screen.CenterOffset(size, g.img.Bounds().Size())
		}
	}
	return outsideWidth, outsideHeight
}

// Close stops the watcher and releases the content pack.
func (g *Game) Close() error {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	return g.comm.Close()
}
