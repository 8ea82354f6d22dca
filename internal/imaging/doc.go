// Package imaging loads training images and provides the raster operations the
// crop samplers need: region crop, fixed-window crop, exact resize, and
// scale-then-pad onto a fixed canvas.
//
// All heavy lifting is delegated to github.com/disintegration/imaging. Results
// are *image.NRGBA with their origin at (0, 0), regardless of the origin of the
// source image.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and never mutate their input, so they can be called
// concurrently, including on the same source image.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Crop regions outside image bounds
//   - Invalid region specifications (x1 >= x2 or y1 >= y2)
//   - File I/O or decoding errors during image loading
package imaging
