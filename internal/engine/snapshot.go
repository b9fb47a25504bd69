package engine

import (
	"compress/gzip"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/fabmask-data/maskforge/internal/field"
	"github.com/fabmask-data/maskforge/internal/fsutil"
)

// Snapshot is a recorded capture sequence: the baseline plus the shifted
// captures of one extraction, in issue order. Snapshots let the pipeline
// run offline against data captured earlier from a live engine.
type Snapshot struct {
	PixelSize  float64
	RecordedAt time.Time
	Captures   []*field.RawCapture
}

// WriteSnapshot serialises a snapshot to a gzip-compressed gob file.
func WriteSnapshot(fsys fsutil.FileSystem, path string, snap *Snapshot) error {
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot %s: %w", path, err)
	}
	defer w.Close()

	zw := gzip.NewWriter(w)
	if err := gob.NewEncoder(zw).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(fsys fsutil.FileSystem, path string) (*Snapshot, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	defer zr.Close()

	var snap Snapshot
	if err := gob.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// RecordSnapshot runs the baseline-plus-offsets capture sequence against a
// live capture client and bundles the results. The offsets match what the
// pipeline issues, so a recorded snapshot replays identically.
func RecordSnapshot(ctx context.Context, client CaptureClient, pixelSize float64) (*Snapshot, error) {
	snap := &Snapshot{PixelSize: pixelSize, RecordedAt: time.Now()}

	baseline, err := client.CaptureIndexField(ctx)
	if err != nil {
		return nil, fmt.Errorf("baseline capture: %w", err)
	}
	snap.Captures = append(snap.Captures, baseline)

	for _, off := range ProbeOffsets(pixelSize) {
		if err := client.OffsetProbe(ctx, off[0], off[1]); err != nil {
			return nil, fmt.Errorf("offset probe by (%g, %g): %w", off[0], off[1], err)
		}
		// The offset is applied from here on; the probe must be moved
		// back even when the capture itself fails.
		c, err := client.CaptureIndexField(ctx)
		if err != nil {
			err = fmt.Errorf("shifted capture at (%g, %g): %w", off[0], off[1], err)
			if rerr := client.RestoreProbeOffset(ctx); rerr != nil {
				err = errors.Join(err, fmt.Errorf("restore probe offset: %w", rerr))
			}
			return nil, err
		}
		snap.Captures = append(snap.Captures, c)
		if err := client.RestoreProbeOffset(ctx); err != nil {
			return nil, fmt.Errorf("restore probe offset: %w", err)
		}
	}
	return snap, nil
}

// ProbeOffsets returns the four half-pixel in-plane shifts applied around
// the baseline capture, in issue order.
func ProbeOffsets(pixelSize float64) [4][2]float64 {
	h := pixelSize / 2
	return [4][2]float64{{h, 0}, {-h, 0}, {0, h}, {0, -h}}
}

// ReplayEngine serves a snapshot's captures through the CaptureClient
// contract, in recorded order. Offset calls are accepted and ignored: the
// recorded captures already embody the probe movement.
type ReplayEngine struct {
	snap *Snapshot
	next int
}

// NewReplayEngine creates a replay over one snapshot.
func NewReplayEngine(snap *Snapshot) *ReplayEngine {
	return &ReplayEngine{snap: snap}
}

// CaptureIndexField returns the next recorded capture.
func (r *ReplayEngine) CaptureIndexField(ctx context.Context) (*field.RawCapture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.next >= len(r.snap.Captures) {
		return nil, fmt.Errorf("engine: snapshot exhausted after %d captures", len(r.snap.Captures))
	}
	c := r.snap.Captures[r.next]
	r.next++
	return c, nil
}

// OffsetProbe implements CaptureClient.
func (r *ReplayEngine) OffsetProbe(ctx context.Context, dx, dy float64) error {
	return ctx.Err()
}

// RestoreProbeOffset implements CaptureClient.
func (r *ReplayEngine) RestoreProbeOffset(ctx context.Context) error {
	return ctx.Err()
}

var _ CaptureClient = (*ReplayEngine)(nil)
