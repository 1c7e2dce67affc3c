// Command commframes lists or previews the frame catalog of a comm screen.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/milk9111/commscreen/archive"
	"github.com/milk9111/commscreen/config"
	"github.com/milk9111/commscreen/content"
	"github.com/milk9111/commscreen/prefabs"
	"github.com/milk9111/commscreen/screen"
)

type previewGame struct {
	catalog     *content.Catalog
	bg          *ebiten.Image
	frames      []*ebiten.Image
	current     int
	tick        int
	ticksPerFrm int
	paused      bool
}

func (g *previewGame) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.paused = !g.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		g.step(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		g.step(-1)
	}
	if g.paused || len(g.frames) <= 1 {
		return nil
	}
	g.tick++
	if g.tick >= g.ticksPerFrm {
		g.tick = 0
		g.step(1)
	}
	return nil
}

// step moves through frames 1..n-1; frame 0 is the background.
func (g *previewGame) step(d int) {
	n := len(g.frames) - 1
	if n < 1 {
		return
	}
	g.current = (g.current-1+d+n)%n + 1
}

func (g *previewGame) Draw(dst *ebiten.Image) {
	dst.Fill(color.RGBA{0x00, 0x00, 0x00, 0xff})
	dst.DrawImage(g.bg, nil)
	if g.current < 1 || g.current >= len(g.frames) {
		return
	}
	f := g.catalog.Frame(g.current)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(f.Hotspot.X), float64(f.Hotspot.Y))
	op.Filter = ebiten.FilterNearest
	dst.DrawImage(g.frames[g.current], op)
	ebitenutil.DebugPrintAt(dst, fmt.Sprintf("%d/%d %s (%d,%d)", g.current, len(g.frames)-1, f.Path, f.Hotspot.X, f.Hotspot.Y), 2, g.bg.Bounds().Dy())
}

func (g *previewGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	b := g.bg.Bounds()
	return b.Dx(), b.Dy() + 16
}

func newPreview(cat *content.Catalog, fps int) *previewGame {
	frames := make([]*ebiten.Image, cat.Len())
	for i, f := range cat.Frames {
		frames[i] = ebiten.NewImageFromImage(f.Image)
	}
	ticks := 1
	if fps > 0 {
		ticks = max(1, ebiten.TPS()/fps)
	}
	return &previewGame{
		catalog:     cat,
		bg:          frames[0],
		frames:      frames,
		current:     1,
		ticksPerFrm: ticks,
	}
}

func main() {
	def := config.Default()
	archivePath := flag.String("archive", "", "content pack zip, or a directory holding one")
	cacheDir := flag.String("cache", "", "cache directory for copied content packs")
	tablesDir := flag.String("tables", def.TablesDir, "directory of race descriptor tables")
	race := flag.String("race", def.Race, "race whose catalog to load")
	list := flag.Bool("list", false, "print the catalog and exit")
	fps := flag.Int("fps", 4, "preview frames per second")
	flag.Parse()

	aliases := prefabs.Variants(*race)
	if spec, err := prefabs.LoadRaceSpec(*tablesDir, *race); err == nil {
		aliases = spec.Aliases()
	}

	ref, err := screen.PackRef(*archivePath)
	if err != nil {
		log.Fatal(err)
	}
	arc, err := archive.NewStore(*cacheDir).Open(ref)
	if err != nil {
		log.Fatal(err)
	}
	defer arc.Close()

	cat, err := content.Build(arc, aliases)
	if err != nil {
		log.Fatal(err)
	}

	if *list {
		fmt.Fprintf(os.Stdout, "%s (%s):\n%s", cat.Manifest, cat.Alias, cat)
		return
	}

	g := newPreview(cat, *fps)
	size := cat.Background().Image.Bounds().Size().Add(image.Pt(0, 16))
	ebiten.SetWindowSize(size.X*2, size.Y*2)
	ebiten.SetWindowTitle(fmt.Sprintf("%s frames", *race))
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
