package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/commscreen/archive"
	"github.com/milk9111/commscreen/common"
	"github.com/milk9111/commscreen/config"
	"github.com/milk9111/commscreen/prefabs"
)

func main() {
	configPath := flag.String("config", "commscreen.yaml", "YAML config file (optional)")
	archivePath := flag.String("archive", "", "content pack zip, or a directory holding one")
	cacheDir := flag.String("cache", "", "cache directory for copied content packs")
	tablesDir := flag.String("tables", "", "directory of race descriptor tables")
	race := flag.String("race", "", "race whose comm screen to show")
	scale := config.ScaleFillHeight
	flag.Var(&scale, "scale", "scaling mode: 0/center, 1/width, 2/height")
	fill := flag.Bool("fill", false, "draw a translucent copy behind the raster")
	seed := flag.Uint64("seed", 0, "random seed (0 picks one)")
	debug := flag.Bool("debug", false, "enable debug logging and overlay")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
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
		case "scale":
			cfg.Scaling = scale
		case "fill":
			cfg.FillFrame = *fill
		case "seed":
			cfg.Seed = *seed
		case "debug":
			cfg.Debug = *debug
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if cfg.Debug {
		common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	var watcher *prefabs.Watcher
	if info, err := os.Stat(cfg.TablesDir); err == nil && info.IsDir() {
		if watcher, err = prefabs.NewWatcher(cfg.TablesDir); err != nil {
			log.Printf("table hot reload disabled: %v", err)
		}
	}

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(960, 600)
	ebiten.SetWindowTitle("commscreen - " + cfg.Race)

	game := NewGame(cfg, archive.NewStore(cfg.CacheDir), watcher)
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
