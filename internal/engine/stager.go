package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/fabmask-data/maskforge/internal/monitoring"
)

// Engine parameter names. These belong to the engine's dialect and must
// not leak outside this package.
const (
	paramMeshType        = "mesh type"
	paramRefinement      = "mesh refinement"
	paramRefinementLevel = "meshing refinement"
	paramMinMeshStep     = "min mesh step"
	paramGradingFactor   = "grading factor"
	paramEnabled         = "enabled"
)

var axisNames = [2]string{"x", "y"}

// numTolerance absorbs float round-trips through the engine's parameter
// protocol when comparing numeric values.
const numTolerance = 1e-12

// StagingError reports a parameter that could not be read or written while
// staging. The undo buffer accumulated up to the failure is still valid and
// must be restored.
type StagingError struct {
	Target string
	Name   string
	Err    error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("engine: staging %s.%q: %v", e.Target, e.Name, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

// UndoEntry is one reversible parameter edit.
type UndoEntry struct {
	Target string
	Name   string
	Old    Value
	Type   ParamType
}

// UndoBuffer is the ordered log of parameter edits made while staging.
// Restore replays it in reverse of the order values were recorded.
type UndoBuffer struct {
	entries []UndoEntry
}

// Len returns the number of recorded edits.
func (b *UndoBuffer) Len() int { return len(b.entries) }

// Empty reports whether staging changed nothing.
func (b *UndoBuffer) Empty() bool { return len(b.entries) == 0 }

// Entries returns a copy of the recorded edits in staging order.
func (b *UndoBuffer) Entries() []UndoEntry {
	return append([]UndoEntry(nil), b.entries...)
}

func (b *UndoBuffer) push(e UndoEntry) { b.entries = append(b.entries, e) }

// StagerConfig names the engine objects the stager touches.
type StagerConfig struct {
	// MeshTarget is the engine object holding the mesh parameters.
	MeshTarget string
	// RegionTarget is the engine object holding the simulation-region span.
	RegionTarget string
	// OverrideRegions are mesh-override objects disabled while staged.
	OverrideRegions []string
}

// Stager forces the engine into a deterministic sampling configuration for
// a requested pixel size and restores the prior configuration afterwards.
type Stager struct {
	params ParameterClient
	cfg    StagerConfig
}

// NewStager creates a stager over the given parameter client.
func NewStager(params ParameterClient, cfg StagerConfig) *Stager {
	return &Stager{params: params, cfg: cfg}
}

// Stage reads each parameter it is about to change and records the old
// value before writing, so only values that actually change enter the
// buffer. On error the returned buffer holds everything staged so far;
// the caller must still Restore it.
//
// Exactly one Restore per Stage, on every exit path.
func (s *Stager) Stage(pixelSize float64) (*UndoBuffer, error) {
	buf := &UndoBuffer{}
	if pixelSize <= 0 {
		return buf, fmt.Errorf("engine: pixel size must be positive, got %g", pixelSize)
	}

	// Mesh generation: custom non-uniform, every in-plane axis defined by
	// a fixed maximum step equal to the pixel size, no grading.
	if err := s.stageMeshType(buf); err != nil {
		return buf, err
	}
	for _, axis := range axisNames {
		if err := s.stageParam(buf, s.cfg.MeshTarget,
			fmt.Sprintf("define %s mesh by", axis), StrValue("maximum mesh step")); err != nil {
			return buf, err
		}
		if err := s.stageParam(buf, s.cfg.MeshTarget,
			fmt.Sprintf("d%s", axis), NumValue(pixelSize)); err != nil {
			return buf, err
		}
		if err := s.stageParam(buf, s.cfg.MeshTarget,
			fmt.Sprintf("allow grading in %s", axis), BoolValue(false)); err != nil {
			return buf, err
		}
	}
	if err := s.stageParam(buf, s.cfg.MeshTarget, paramGradingFactor, NumValue(1.0)); err != nil {
		return buf, err
	}

	// Refinement: plain staircase at the lowest level, so the probe sees
	// exactly one index value per mesh cell.
	if err := s.stageRefinement(buf); err != nil {
		return buf, err
	}
	if err := s.stageParam(buf, s.cfg.MeshTarget, paramRefinementLevel, NumValue(1)); err != nil {
		return buf, err
	}
	if err := s.stageParam(buf, s.cfg.MeshTarget, paramMinMeshStep, NumValue(pixelSize/1000)); err != nil {
		return buf, err
	}

	// Region span must divide evenly into pixels; round to the nearest
	// multiple when it does not.
	for _, axis := range axisNames {
		if err := s.stageSpan(buf, axis, pixelSize); err != nil {
			return buf, err
		}
	}

	// Mesh-override regions would defeat the uniform step; disable any
	// that are active, remembering their prior state.
	for _, region := range s.cfg.OverrideRegions {
		if err := s.stageParam(buf, region, paramEnabled, BoolValue(false)); err != nil {
			return buf, err
		}
	}

	return buf, nil
}

// Restore replays the buffer in reverse of the order values were recorded,
// writing each old value back. All entries are attempted even if some
// writes fail; failures are joined into the returned error.
func (s *Stager) Restore(buf *UndoBuffer) error {
	if buf == nil {
		return nil
	}
	var errs []error
	for i := len(buf.entries) - 1; i >= 0; i-- {
		e := buf.entries[i]
		if _, err := s.params.Set(e.Target, e.Name, e.Old, e.Type); err != nil {
			errs = append(errs, &StagingError{Target: e.Target, Name: e.Name, Err: err})
		}
	}
	return errors.Join(errs...)
}

// stageParam writes want to target.name if the current value differs,
// recording the old value first. A value the engine accepts differently
// from the request is logged and adopted, not treated as an error.
func (s *Stager) stageParam(buf *UndoBuffer, target, name string, want Value) error {
	old, err := s.params.Get(target, name, want.Type)
	if err != nil {
		return &StagingError{Target: target, Name: name, Err: err}
	}
	if valuesMatch(old, want) {
		return nil
	}

	accepted, err := s.params.Set(target, name, want, want.Type)
	if err != nil {
		return &StagingError{Target: target, Name: name, Err: err}
	}
	if !valuesMatch(accepted, want) {
		monitoring.Warnf("engine accepted %s.%q = %s instead of requested %s",
			target, name, accepted, want)
	}

	buf.push(UndoEntry{Target: target, Name: name, Old: old, Type: want.Type})
	return nil
}

// stageMeshType compares mesh types semantically so e.g. capitalisation
// differences in the engine's string do not count as a change.
func (s *Stager) stageMeshType(buf *UndoBuffer) error {
	old, err := s.params.Get(s.cfg.MeshTarget, paramMeshType, String)
	if err != nil {
		return &StagingError{Target: s.cfg.MeshTarget, Name: paramMeshType, Err: err}
	}
	if parseMeshType(old.Str) == MeshCustomNonUniform {
		return nil
	}

	want := StrValue(MeshCustomNonUniform.engineName())
	accepted, err := s.params.Set(s.cfg.MeshTarget, paramMeshType, want, String)
	if err != nil {
		return &StagingError{Target: s.cfg.MeshTarget, Name: paramMeshType, Err: err}
	}
	if parseMeshType(accepted.Str) != MeshCustomNonUniform {
		monitoring.Warnf("engine accepted %s.%q = %s instead of requested %s",
			s.cfg.MeshTarget, paramMeshType, accepted, want)
	}

	buf.push(UndoEntry{Target: s.cfg.MeshTarget, Name: paramMeshType, Old: old, Type: String})
	return nil
}

func (s *Stager) stageRefinement(buf *UndoBuffer) error {
	old, err := s.params.Get(s.cfg.MeshTarget, paramRefinement, String)
	if err != nil {
		return &StagingError{Target: s.cfg.MeshTarget, Name: paramRefinement, Err: err}
	}
	if parseRefinementMode(old.Str) == RefineStaircase {
		return nil
	}

	want := StrValue(RefineStaircase.engineName())
	accepted, err := s.params.Set(s.cfg.MeshTarget, paramRefinement, want, String)
	if err != nil {
		return &StagingError{Target: s.cfg.MeshTarget, Name: paramRefinement, Err: err}
	}
	if parseRefinementMode(accepted.Str) != RefineStaircase {
		monitoring.Warnf("engine accepted %s.%q = %s instead of requested %s",
			s.cfg.MeshTarget, paramRefinement, accepted, want)
	}

	buf.push(UndoEntry{Target: s.cfg.MeshTarget, Name: paramRefinement, Old: old, Type: String})
	return nil
}

// stageSpan rounds the region span to the nearest positive multiple of the
// pixel size when it is not already a multiple.
func (s *Stager) stageSpan(buf *UndoBuffer, axis string, pixelSize float64) error {
	name := axis + " span"
	old, err := s.params.Get(s.cfg.RegionTarget, name, Number)
	if err != nil {
		return &StagingError{Target: s.cfg.RegionTarget, Name: name, Err: err}
	}

	pixels := math.Round(old.Num / pixelSize)
	if pixels < 1 {
		pixels = 1
	}
	want := pixels * pixelSize
	if math.Abs(want-old.Num) <= numTolerance*math.Max(1, math.Abs(old.Num)) {
		return nil
	}

	accepted, err := s.params.Set(s.cfg.RegionTarget, name, NumValue(want), Number)
	if err != nil {
		return &StagingError{Target: s.cfg.RegionTarget, Name: name, Err: err}
	}
	if !valuesMatch(accepted, NumValue(want)) {
		monitoring.Warnf("engine accepted %s.%q = %s instead of requested %g",
			s.cfg.RegionTarget, name, accepted, want)
	}

	buf.push(UndoEntry{Target: s.cfg.RegionTarget, Name: name, Old: old, Type: Number})
	return nil
}

// valuesMatch compares values with a relative tolerance for numbers and
// exact equality otherwise.
func valuesMatch(a, b Value) bool {
	if a.Equal(b) {
		return true
	}
	if a.Type != b.Type {
		return false
	}
	if a.Type == Number {
		return math.Abs(a.Num-b.Num) <= numTolerance*math.Max(1, math.Max(math.Abs(a.Num), math.Abs(b.Num)))
	}
	return false
}
