// Command extract runs the geometry extraction pipeline end to end and
// writes the fabrication masks. The field captures come either from a
// recorded snapshot (-snapshot) or from the built-in synthetic engine
// (-demo).
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/fabmask-data/maskforge/internal/config"
	"github.com/fabmask-data/maskforge/internal/engine"
	"github.com/fabmask-data/maskforge/internal/fsutil"
	"github.com/fabmask-data/maskforge/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "extraction config JSON (optional)")
	snapshotPath := flag.String("snapshot", "", "replay a recorded capture snapshot")
	demo := flag.Bool("demo", false, "run against the built-in synthetic engine")
	pixelNM := flag.Float64("pixel", 0, "pixel size in nm (overrides config)")
	bitmapOut := flag.String("out-bitmap", "mask.png", "bitmap output path (empty to skip)")
	vectorOut := flag.String("out-gds", "mask.gds", "GDSII output path (empty to skip)")
	rows := flag.Int("rows", 0, "tiling rows (overrides config)")
	cols := flag.Int("cols", 0, "tiling columns (overrides config)")
	strategy := flag.String("strategy", "", "polygon strategy: convex-hull or boundary-trace")
	zIndex := flag.Int("z", -9999, "z node plane (default: middle)")
	invert := flag.Bool("invert", false, "invert bitmap pixel mapping")
	flag.Parse()

	if *configPath == "" {
		// Fall back to the canonical defaults file when present.
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			*configPath = config.DefaultConfigPath
		}
	}
	cfg := config.EmptyExtractionConfig()
	if *configPath != "" {
		loaded, err := config.LoadExtractionConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	opts := pipeline.Options{
		PixelSize:    cfg.GetPixelSize(),
		Rows:         cfg.GetRows(),
		Columns:      cfg.GetColumns(),
		Unit:         cfg.GetUnit(),
		ZIndex:       cfg.GetZIndex(),
		InvertBitmap: cfg.GetInvertBitmap(),
		Strategy:     cfg.GetPolygonStrategy(),
		BitmapPath:   *bitmapOut,
		VectorPath:   *vectorOut,
	}
	// An explicitly passed -invert overrides the config in either
	// direction.
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "invert" {
			opts.InvertBitmap = *invert
		}
	})
	if *pixelNM > 0 {
		opts.PixelSize = *pixelNM * 1e-9
	}
	if *rows > 0 {
		opts.Rows = *rows
	}
	if *cols > 0 {
		opts.Columns = *cols
	}
	if *strategy != "" {
		opts.Strategy = *strategy
	}
	if *zIndex != -9999 {
		opts.ZIndex = *zIndex
	}

	fs := fsutil.OSFileSystem{}
	p := &pipeline.Pipeline{FS: fs}

	switch {
	case *snapshotPath != "":
		snap, err := engine.ReadSnapshot(fs, *snapshotPath)
		if err != nil {
			log.Fatalf("read snapshot: %v", err)
		}
		if snap.PixelSize > 0 {
			opts.PixelSize = snap.PixelSize
		}
		p.Capture = engine.NewReplayEngine(snap)
	case *demo:
		mock := demoEngine(cfg, opts.PixelSize)
		p.Capture = mock
		p.Stager = engine.NewStager(mock, engine.StagerConfig{
			MeshTarget:      cfg.GetMeshTarget(),
			RegionTarget:    cfg.GetRegionTarget(),
			OverrideRegions: cfg.GetOverrideRegions(),
		})
	default:
		log.Fatal("either -snapshot or -demo is required")
	}

	res, err := p.Extract(context.Background(), opts)
	if err != nil {
		log.Fatalf("extract: %v", err)
	}

	log.Printf("run %s: %d materials, %d structures, %d layers",
		res.RunID, len(res.Model.Materials), len(res.Model.Structures), len(res.Model.Layers))
	for _, mat := range res.Model.Materials {
		log.Printf("  material %d: n=%v, %d structures, %d layers",
			mat.ID, mat.Index[0],
			len(res.Model.StructuresOf(mat.ID)), len(res.Model.LayersOf(mat.ID)))
	}
	for _, layer := range res.Model.Layers {
		mat := res.Model.Material(layer.MaterialID)
		log.Printf("  layer %d.%d: n=%v, z planes %d..%d",
			layer.MaterialID, layer.ID, mat.Index[0], layer.MinZ, layer.MaxZ)
	}
	if res.BitmapPath != "" {
		log.Printf("✓ Created: %s", res.BitmapPath)
	}
	if res.VectorPath != "" {
		log.Printf("✓ Created: %s", res.VectorPath)
	}
}

// demoEngine builds a mock engine around a square dielectric post, sized
// relative to the pixel pitch so the shifted captures agree on its body.
func demoEngine(cfg *config.ExtractionConfig, pixelSize float64) *engine.MockEngine {
	mock := engine.NewMockEngine()
	mock.Step = pixelSize
	lo, hi := 2.4*pixelSize, 5.6*pixelSize
	mock.Scene = func(x, y, z float64) complex128 {
		if x > lo && x < hi && y > lo && y < hi {
			return complex(2.25, 0)
		}
		return complex(1, 0)
	}
	mock.SeedStagingDefaults(engine.StagerConfig{
		MeshTarget:      cfg.GetMeshTarget(),
		RegionTarget:    cfg.GetRegionTarget(),
		OverrideRegions: cfg.GetOverrideRegions(),
	}, 8*pixelSize, 8*pixelSize)
	return mock
}
