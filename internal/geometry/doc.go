// Package geometry provides the polygon primitives used by label generation.
//
// Polygons are ordered point sequences in image pixel coordinates, closed
// implicitly (the last point connects back to the first). The coordinate
// system follows the usual image convention:
//   - Origin (0, 0) at the top-left pixel
//   - X increases rightward
//   - Y increases downward
//
// # Orientation
//
// SignedArea uses the sum over p_i x p_{i-1}, so in image coordinates a
// positive value means the polygon must be reversed to reach the canonical
// winding expected by the map builders. Area is always the absolute value.
//
// # Rasterization
//
// FillPolygon writes a constant value into a gonum matrix for every pixel
// the polygon covers. Integer vertex coordinates sit on pixel centers, so a
// square from (10,10) to (50,50) sets rows and columns 10 through 50
// inclusive. Polygons that extend past the matrix are clipped first.
//
// # Numeric Safety
//
// PointSegmentDistance never returns NaN: coincident segment endpoints and
// points lying on an endpoint are resolved to plain Euclidean distances.
package geometry
