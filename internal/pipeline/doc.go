// Package pipeline chains per-sample transforms that turn a raw image and
// label into cropped training inputs and dense supervision maps.
//
// A Pipeline is built from configuration steps by name:
//
//   - decode_labels: parse the JSON label into annotations
//   - east_crop: area-based crop, then scale to the output size
//   - pse_crop: fixed-size crop of the image and all maps, biased to text
//   - shrink_map: add shrink_map and shrink_mask
//   - border_map: add threshold_map and threshold_mask
//
// Each step's params are overlaid on that transform's defaults, so a step
// with no params runs with the stock configuration.
//
// Outputs are read back by name through Sample.Get, which tolerates absent
// keys, or Sample.Select, which requires them.
//
// # Errors
//
// Degenerate geometry never fails a sample. A label that cannot be decoded
// or holds no annotations yields ErrNoUsableSample, and the dataset layer
// substitutes another index. Any other error is a configuration or input
// problem and is returned as is.
package pipeline
