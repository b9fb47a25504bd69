// Package export turns a finalized 2-D occupancy mask and its coordinate
// axes into fabrication-ready outputs: an 8-bit raster bitmap and a GDSII
// vector file, both periodically tiled by a repeat count.
//
// Both outputs must be derived from the same mask and axis pair so the
// raster and vector representations stay geometrically consistent.
package export
