// Command gen-snapshot records a capture snapshot from the built-in
// synthetic engine, for testing snapshot replay.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/fabmask-data/maskforge/internal/engine"
	"github.com/fabmask-data/maskforge/internal/fsutil"
)

func main() {
	output := flag.String("o", "sample.snapshot", "output path")
	pixelNM := flag.Float64("pixel", 100, "pixel size in nm")
	nodes := flag.Int("nodes", 9, "nodes per horizontal axis")
	planes := flag.Int("planes", 3, "vertical node planes")
	index := flag.Float64("index", 1.5, "refractive index of the synthetic post")
	flag.Parse()

	pixel := *pixelNM * 1e-9

	mock := engine.NewMockEngine()
	mock.NodesX, mock.NodesY, mock.NodesZ = *nodes, *nodes, *planes
	mock.Step = pixel
	lo, hi := 2.4*pixel, float64(*nodes-3)*pixel+0.6*pixel
	n2 := complex(*index**index, 0)
	mock.Scene = func(x, y, z float64) complex128 {
		if x > lo && x < hi && y > lo && y < hi {
			return n2
		}
		return complex(1, 0)
	}

	snap, err := engine.RecordSnapshot(context.Background(), mock, pixel)
	if err != nil {
		log.Fatalf("record snapshot: %v", err)
	}
	if err := engine.WriteSnapshot(fsutil.OSFileSystem{}, *output, snap); err != nil {
		log.Fatalf("write snapshot: %v", err)
	}
	log.Printf("✓ Created: %s (%d captures)", *output, len(snap.Captures))
}
