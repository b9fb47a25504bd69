package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/fabmask-data/maskforge/internal/field"
)

// MockEngine is an in-memory engine for tests and offline runs. It serves
// both collaborator contracts: a parameter store with an operation log, and
// a capture probe sampling a synthetic scene function at mesh-node
// positions (plus the current probe offset).
type MockEngine struct {
	mu sync.Mutex

	params map[string]map[string]Value

	// Ops records every parameter operation in order, for assertions on
	// staging and restore ordering.
	Ops []string

	// Scene maps a physical position (meters) to a complex index. Nil
	// means uniform free space.
	Scene func(x, y, z float64) complex128

	// Grid geometry for captures.
	NodesX, NodesY, NodesZ int
	Step                   float64 // node spacing, meters
	FreqPoints             int

	dx, dy float64 // current probe offset

	// Error injection.
	FailGet     map[string]error // keyed "target.name"
	FailSet     map[string]error
	FailCapture error

	// AcceptOverride remaps a requested Set value, simulating an engine
	// that adjusts requested values. Keyed "target.name".
	AcceptOverride map[string]Value
}

// NewMockEngine creates a mock with a 9x9x3 node grid, one frequency
// sample and a 100 nm step.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		params:     make(map[string]map[string]Value),
		NodesX:     9,
		NodesY:     9,
		NodesZ:     3,
		Step:       100e-9,
		FreqPoints: 1,
	}
}

// SetParam seeds a parameter without logging, for test setup.
func (m *MockEngine) SetParam(target, name string, v Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.params[target] == nil {
		m.params[target] = make(map[string]Value)
	}
	m.params[target][name] = v
}

// Param returns the current value of a parameter, for test assertions.
func (m *MockEngine) Param(target, name string) (Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.params[target][name]
	return v, ok
}

// Get implements ParameterClient.
func (m *MockEngine) Get(target, name string, typ ParamType) (Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := target + "." + name
	if err := m.FailGet[key]; err != nil {
		return Value{}, err
	}
	m.Ops = append(m.Ops, "get "+key)

	v, ok := m.params[target][name]
	if !ok {
		return Value{}, fmt.Errorf("mock engine: unknown parameter %s", key)
	}
	return v, nil
}

// Set implements ParameterClient.
func (m *MockEngine) Set(target, name string, v Value, typ ParamType) (Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := target + "." + name
	if err := m.FailSet[key]; err != nil {
		return Value{}, err
	}

	accepted := v
	if over, ok := m.AcceptOverride[key]; ok {
		accepted = over
	}

	if m.params[target] == nil {
		m.params[target] = make(map[string]Value)
	}
	m.params[target][name] = accepted
	m.Ops = append(m.Ops, fmt.Sprintf("set %s=%s", key, accepted))
	return accepted, nil
}

// CaptureIndexField implements CaptureClient by sampling the scene at every
// mesh node, shifted by the current probe offset.
func (m *MockEngine) CaptureIndexField(ctx context.Context) (*field.RawCapture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCapture != nil {
		return nil, m.FailCapture
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	axes := field.Axes{
		X: m.axis(m.NodesX, m.dx),
		Y: m.axis(m.NodesY, m.dy),
		Z: m.axis(m.NodesZ, 0),
	}

	raw := &field.RawCapture{Axes: axes, FreqPoints: m.FreqPoints}
	for comp := 0; comp < 3; comp++ {
		t := field.NewTensor(m.NodesX, m.NodesY, m.NodesZ, m.FreqPoints)
		for i := 0; i < m.NodesX; i++ {
			for j := 0; j < m.NodesY; j++ {
				for k := 0; k < m.NodesZ; k++ {
					v := m.sample(axes.X[i], axes.Y[j], axes.Z[k])
					for f := 0; f < m.FreqPoints; f++ {
						t.Set(v, i, j, k, f)
					}
				}
			}
		}
		raw.Components[comp] = t
	}
	return raw, nil
}

// OffsetProbe implements CaptureClient.
func (m *MockEngine) OffsetProbe(ctx context.Context, dx, dy float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	m.dx, m.dy = dx, dy
	return nil
}

// RestoreProbeOffset implements CaptureClient.
func (m *MockEngine) RestoreProbeOffset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	m.dx, m.dy = 0, 0
	return nil
}

func (m *MockEngine) axis(n int, shift float64) []float64 {
	a := make([]float64, n)
	for i := range a {
		a[i] = float64(i)*m.Step + shift
	}
	return a
}

func (m *MockEngine) sample(x, y, z float64) complex128 {
	if m.Scene == nil {
		return field.FreeSpace
	}
	return m.Scene(x, y, z)
}

// SeedStagingDefaults seeds every parameter the stager touches with a
// plausible pre-staging configuration, so Stage can run against the mock
// without per-test setup.
func (m *MockEngine) SeedStagingDefaults(cfg StagerConfig, spanX, spanY float64) {
	m.SetParam(cfg.MeshTarget, paramMeshType, StrValue(MeshAutoNonUniform.engineName()))
	m.SetParam(cfg.MeshTarget, paramRefinement, StrValue(RefineConformal.engineName()))
	m.SetParam(cfg.MeshTarget, paramRefinementLevel, NumValue(2))
	m.SetParam(cfg.MeshTarget, paramMinMeshStep, NumValue(1e-10))
	m.SetParam(cfg.MeshTarget, paramGradingFactor, NumValue(1.2))
	for _, axis := range axisNames {
		m.SetParam(cfg.MeshTarget, fmt.Sprintf("define %s mesh by", axis), StrValue("mesh cells per wavelength"))
		m.SetParam(cfg.MeshTarget, fmt.Sprintf("d%s", axis), NumValue(2.5e-8))
		m.SetParam(cfg.MeshTarget, fmt.Sprintf("allow grading in %s", axis), BoolValue(true))
	}
	m.SetParam(cfg.RegionTarget, "x span", NumValue(spanX))
	m.SetParam(cfg.RegionTarget, "y span", NumValue(spanY))
	for _, region := range cfg.OverrideRegions {
		m.SetParam(region, paramEnabled, BoolValue(true))
	}
}

var (
	_ ParameterClient = (*MockEngine)(nil)
	_ CaptureClient   = (*MockEngine)(nil)
)
