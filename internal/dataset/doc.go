// Package dataset reads raw samples from a Store and turns them into
// pipeline outputs.
//
// A Store is any random-access source of (image, label) pairs. DirStore
// reads a directory plus a tab-separated label file; Concat joins several
// stores into one index space.
//
// Dataset adds the training-loop concerns on top: a seeded shuffle, a
// sample_ratio cut, output-key validation against the first sample, and
// resampling of samples that turn out to be unusable.
package dataset
