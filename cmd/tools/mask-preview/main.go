// Command mask-preview renders heatmaps of a recorded snapshot's fused
// index field, one per z plane, for inspection before an extraction run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fabmask-data/maskforge/internal/engine"
	"github.com/fabmask-data/maskforge/internal/field"
	"github.com/fabmask-data/maskforge/internal/fsutil"
	"github.com/fabmask-data/maskforge/internal/monitor"
)

func main() {
	snapshotPath := flag.String("snapshot", "", "capture snapshot to preview (required)")
	outDir := flag.String("plots", "plots", "base output directory")
	zIndex := flag.Int("z", -1, "single z plane to render (-1 for all)")
	flag.Parse()

	if *snapshotPath == "" {
		log.Fatal("-snapshot is required")
	}

	snap, err := engine.ReadSnapshot(fsutil.OSFileSystem{}, *snapshotPath)
	if err != nil {
		log.Fatalf("read snapshot: %v", err)
	}

	combined := make([]*field.Tensor, 0, len(snap.Captures))
	for i, c := range snap.Captures {
		t, err := field.CombineAxes(c)
		if err != nil {
			log.Fatalf("combine capture %d: %v", i, err)
		}
		combined = append(combined, t)
	}
	fused, err := field.Fuse(combined)
	if err != nil {
		log.Fatalf("fuse captures: %v", err)
	}

	dir := monitor.MakePreviewOutputDir(*outDir, *snapshotPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	axes := snap.Captures[0].Axes
	planes := []int{*zIndex}
	if *zIndex < 0 {
		planes = planes[:0]
		for z := 0; z < fused.Shape[2]; z++ {
			planes = append(planes, z)
		}
	}
	for _, z := range planes {
		path := filepath.Join(dir, fmt.Sprintf("plane_%02d.png", z))
		if err := monitor.WriteHeatmap(fused, axes, z, path); err != nil {
			log.Fatalf("plane %d: %v", z, err)
		}
		log.Printf("✓ Created: %s", path)
	}
}
