package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fabmask-data/maskforge/internal/field"
	"github.com/fabmask-data/maskforge/internal/fsutil"
)

func TestRecordSnapshotSequence(t *testing.T) {
	m := NewMockEngine()
	m.Scene = func(x, y, z float64) complex128 {
		if x > 200e-9 && x < 600e-9 && y > 200e-9 && y < 600e-9 {
			return 2.1
		}
		return field.FreeSpace
	}

	snap, err := RecordSnapshot(context.Background(), m, 100e-9)
	require.NoError(t, err)
	require.Len(t, snap.Captures, 5, "baseline plus four shifted captures")
	require.Equal(t, 100e-9, snap.PixelSize)

	// The baseline and shifted captures sample different positions, so at
	// least one pair must disagree somewhere inside the structure.
	base, err := field.CombineAxes(snap.Captures[0])
	require.NoError(t, err)
	shifted, err := field.CombineAxes(snap.Captures[1])
	require.NoError(t, err)
	require.True(t, base.SameShape(shifted))
	differ := false
	for i := range base.Data {
		if base.Data[i] != shifted.Data[i] {
			differ = true
			break
		}
	}
	require.True(t, differ, "half-pixel shift should move the staircased boundary")
}

// flakyCaptureClient fails the nth CaptureIndexField call and delegates
// everything else to the wrapped engine.
type flakyCaptureClient struct {
	*MockEngine
	failAt int
	calls  int
}

func (f *flakyCaptureClient) CaptureIndexField(ctx context.Context) (*field.RawCapture, error) {
	f.calls++
	if f.calls == f.failAt {
		return nil, context.DeadlineExceeded
	}
	return f.MockEngine.CaptureIndexField(ctx)
}

func TestRecordSnapshotRestoresOffsetOnCaptureFailure(t *testing.T) {
	m := NewMockEngine()
	flaky := &flakyCaptureClient{MockEngine: m, failAt: 2}

	_, err := RecordSnapshot(context.Background(), flaky, 100e-9)
	require.Error(t, err, "second capture fails")

	// The probe must be back at the baseline position: a fresh capture
	// reports unshifted axes.
	c, err := m.CaptureIndexField(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0.0, c.Axes.X[0], "x offset still applied after failure")
	require.Equal(t, 0.0, c.Axes.Y[0], "y offset still applied after failure")
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := NewMockEngine()
	m.Scene = func(x, y, z float64) complex128 {
		if x >= 300e-9 && x <= 500e-9 {
			return 1.7 + 0.01i
		}
		return field.FreeSpace
	}

	snap, err := RecordSnapshot(context.Background(), m, 100e-9)
	require.NoError(t, err)

	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, WriteSnapshot(fsys, "run.snap.gz", snap))

	loaded, err := ReadSnapshot(fsys, "run.snap.gz")
	require.NoError(t, err)
	require.Equal(t, snap.PixelSize, loaded.PixelSize)
	require.Len(t, loaded.Captures, len(snap.Captures))
	for i := range snap.Captures {
		want := snap.Captures[i].Components[0]
		got := loaded.Captures[i].Components[0]
		require.Equal(t, want.Shape, got.Shape, "capture %d shape", i)
		require.Equal(t, want.Data, got.Data, "capture %d data", i)
	}
}

func TestReplayEngineServesInOrder(t *testing.T) {
	m := NewMockEngine()
	snap, err := RecordSnapshot(context.Background(), m, 100e-9)
	require.NoError(t, err)

	r := NewReplayEngine(snap)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		c, err := r.CaptureIndexField(ctx)
		require.NoError(t, err)
		require.Same(t, snap.Captures[i], c)
		require.NoError(t, r.OffsetProbe(ctx, 1, 1))
		require.NoError(t, r.RestoreProbeOffset(ctx))
	}
	_, err = r.CaptureIndexField(ctx)
	require.Error(t, err, "exhausted snapshot should fail")
}
