package engine

import "strings"

// MeshType is the closed set of mesh generation modes the engine reports.
// The engine-side strings stay inside this package; the rest of the
// pipeline only ever sees the enum.
type MeshType int

const (
	MeshUnknown MeshType = iota
	MeshAutoNonUniform
	MeshCustomNonUniform
	MeshUniform
)

// meshTypeNames maps enum values to the engine's parameter strings.
var meshTypeNames = map[MeshType]string{
	MeshAutoNonUniform:   "auto non-uniform",
	MeshCustomNonUniform: "custom non-uniform",
	MeshUniform:          "uniform",
}

func (m MeshType) engineName() string { return meshTypeNames[m] }

func parseMeshType(s string) MeshType {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range meshTypeNames {
		if s == name {
			return m
		}
	}
	return MeshUnknown
}

// RefinementMode is the closed set of mesh-refinement algorithms the
// engine reports.
type RefinementMode int

const (
	RefineUnknown RefinementMode = iota
	RefineStaircase
	RefineConformal
	RefineConformalVariant1
	RefineConformalVariant2
)

var refinementNames = map[RefinementMode]string{
	RefineStaircase:         "staircase",
	RefineConformal:         "conformal",
	RefineConformalVariant1: "conformal variant 1",
	RefineConformalVariant2: "conformal variant 2",
}

func (r RefinementMode) engineName() string { return refinementNames[r] }

func parseRefinementMode(s string) RefinementMode {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, name := range refinementNames {
		if s == name {
			return r
		}
	}
	return RefineUnknown
}
