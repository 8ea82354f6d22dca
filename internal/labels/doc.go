// Package labels builds dense supervision maps for segmentation-based text
// detection from polygon annotations.
//
// Two builders are provided:
//
//   - ShrinkMapBuilder: a binary map of every text region shrunk inward,
//     plus a mask that zeroes ignored, tiny, or degenerate regions.
//   - BorderMapBuilder: a threshold map holding 1 - normalized distance to
//     the nearest polygon edge inside each padded region, rescaled into
//     [ThreshMin, ThreshMax], plus a mask of the padded regions.
//
// All maps are gonum dense matrices with one row per image row and one
// column per image column, so m.At(y, x) addresses pixel (x, y).
//
// # Degenerate Geometry
//
// Polygons that are too small, have near-zero area, or cannot be shrunk to a
// single region are never reported as errors. They are marked ignorable and
// zeroed in the shrink mask. Only structurally invalid input (a polygon with
// fewer than three points, or a non-positive image size) returns an error.
//
// # Concurrency
//
// Builders hold only immutable configuration and may be shared across
// goroutines.
package labels
