// Package field holds the refractive-index sample model: dense complex
// tensors captured from the simulation engine's field probe, the free-space
// sentinel convention, and consensus fusion of geometrically offset
// captures.
//
// A probe aligned exactly to the solver's computational grid reports the
// coarse, staircased index at each cell rather than the true sub-cell
// geometry. Capturing the same region shifted by half a pixel in each
// in-plane axis and keeping only cells where every capture agrees treats
// disagreement as evidence of a sub-cell boundary and conservatively
// reports it as free space.
package field
