// Command commgif renders a comm screen animation to an animated GIF.
package main

import (
	"bytes"
	"flag"
	"image"
	"image/color/palette"
	"image/gif"
	"log"
	"log/slog"
	"os"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/milk9111/commscreen/anim"
	"github.com/milk9111/commscreen/archive"
	"github.com/milk9111/commscreen/common"
	"github.com/milk9111/commscreen/config"
	"github.com/milk9111/commscreen/screen"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	archivePath := flag.String("archive", "", "content pack zip, or a directory holding one")
	cacheDir := flag.String("cache", "", "cache directory for copied content packs")
	tablesDir := flag.String("tables", "", "directory of race descriptor tables")
	race := flag.String("race", "", "race whose comm screen to render")
	seed := flag.Uint64("seed", 1, "random seed")
	duration := flag.Duration("duration", 10*time.Second, "length of the animation")
	scale := flag.Int("scale", 2, "integer upscaling factor")
	out := flag.String("o", "comm.gif", "output file")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if *verbose {
		common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	cfg.Seed = *seed
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "archive":
			cfg.Archive = *archivePath
		case "cache":
			cfg.CacheDir = *cacheDir
		case "tables":
			cfg.TablesDir = *tablesDir
		case "race":
			cfg.Race = *race
		}
	})
	if *scale < 1 {
		log.Fatalf("scale must be >= 1, got %d", *scale)
	}

	s, err := screen.Open(cfg, archive.NewStore(cfg.CacheDir), 0)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	g := render(s.Engine, *duration, *scale)

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	if err := gif.EncodeAll(f, g); err != nil {
		f.Close()
		log.Fatal(err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s: %d frames, %s", *out, len(g.Image), *duration)
}

// render steps e by its own delay hints until d has elapsed. Each raster is
// upscaled by scale and mapped to the Plan 9 palette; unchanged rasters
// extend the previous frame instead of adding one.
func render(e *anim.Engine, d time.Duration, scale int) *gif.GIF {
	g := &gif.GIF{}
	end := d.Milliseconds()
	for now := int64(0); now < end; {
		raster, delay := e.Tick(now)
		step := min(int64(delay), end-now)
		now += step

		frame := quantize(raster, scale)
		n := len(g.Image)
		if n > 0 && bytes.Equal(g.Image[n-1].Pix, frame.Pix) {
			g.Delay[n-1] += int(step)
			continue
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, int(step))
	}
	// milliseconds to hundredths of a second
	for i, ms := range g.Delay {
		g.Delay[i] = max(1, (ms+5)/10)
	}
	return g
}

func quantize(src image.Image, scale int) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale), palette.Plan9)
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}
