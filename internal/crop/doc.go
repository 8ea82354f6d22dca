// Package crop samples fixed-size training tiles that keep text in view.
//
// EastSampler projects the bounding boxes of the cared-for regions onto the
// image axes and draws crop edges only from unoccupied rows and columns, so a
// crop never cuts through a region's bounding box unless the search falls back
// to the full image. The crop is then scaled to the output size.
//
// PSESampler works on an image plus a stack of aligned label maps and cuts a
// window of exactly the output size without scaling, biased toward windows
// that contain shrink-map foreground.
//
// Samplers hold only configuration. Randomness comes from the *rand.Rand
// passed to each call, so a worker that owns its source gets reproducible
// crops without locking.
package crop
