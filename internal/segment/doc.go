// Package segment builds the material / structure / layer object graph from
// a fused refractive-index field.
//
// Materials partition the non-free-space cells by distinct index vector.
// Structures are the maximal connected components within one material's
// mask, using full neighbor connectivity (8 neighbors in 2-D, 26 in 3-D).
// Layers group a material's structures by their vertical voxel extent so
// that everything fabricated in one lithography step lands in one group.
package segment
