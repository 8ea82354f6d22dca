package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/textdet-labels/internal/imaging"
)

var (
	// ErrIndexOutOfRange is returned for an index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrRecordUnavailable is returned when a record exists in the index but
	// its image or label cannot be read. Dataset resamples on it.
	ErrRecordUnavailable = errors.New("record unavailable")
)

// Record is one raw sample: an image and its undecoded label.
type Record struct {
	Path  string
	Image image.Image
	Label string
}

// Store is a random-access source of raw samples.
type Store interface {
	Len() int
	Get(index int) (Record, error)
}

type entry struct {
	path  string
	label string
}

// DirStore reads samples listed in a label file. Each non-empty line holds an
// image path relative to the store directory, a tab, and the JSON label:
//
//	train/img_1.jpg	[{"transcription": "HELLO", "points": [[10,10],[90,10],[90,40],[10,40]]}]
type DirStore struct {
	dir     string
	entries []entry
	cache   *imaging.ImageCache
}

// maxLabelLine bounds a single label-file line.
const maxLabelLine = 16 << 20

// OpenDirStore reads the label file and indexes its entries. Images are
// decoded lazily through cache; a nil cache selects an unbounded one.
func OpenDirStore(dir, labelFile string, cache *imaging.ImageCache) (*DirStore, error) {
	path := labelFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, labelFile)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer f.Close()

	var entries []entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLabelLine)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		imgPath, label, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected <image path>\\t<label>", path, line)
		}
		entries = append(entries, entry{path: imgPath, label: label})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}

	if cache == nil {
		cache = imaging.NewImageCache(-1)
	}
	return &DirStore{dir: dir, entries: entries, cache: cache}, nil
}

// Len returns the number of indexed samples.
func (s *DirStore) Len() int { return len(s.entries) }

// Get loads the image for index and returns it with its raw label.
func (s *DirStore) Get(index int) (Record, error) {
	if index < 0 || index >= len(s.entries) {
		return Record{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(s.entries))
	}
	e := s.entries[index]
	full := filepath.Join(s.dir, e.path)
	img, err := s.cache.Load(full)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrRecordUnavailable, err)
	}
	return Record{Path: full, Image: img, Label: e.label}, nil
}

// OpenStores opens every label file matching the glob pattern labelFiles
// under dir, in lexical order, and joins them with Concat. A pattern with no
// glob characters names a single file.
func OpenStores(dir, labelFiles string, cache *imaging.ImageCache) (Store, error) {
	matches, err := filepath.Glob(filepath.Join(dir, labelFiles))
	if err != nil {
		return nil, fmt.Errorf("invalid label file pattern %q: %w", labelFiles, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no label file matches %q in %s", labelFiles, dir)
	}
	if cache == nil {
		cache = imaging.NewImageCache(-1)
	}

	stores := make([]Store, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(dir, m)
		if err != nil {
			return nil, err
		}
		s, err := OpenDirStore(dir, rel, cache)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	if len(stores) == 1 {
		return stores[0], nil
	}
	return Concat(stores...), nil
}

// Concat joins stores end to end so several label files read as one.
func Concat(stores ...Store) Store {
	return multiStore(stores)
}

type multiStore []Store

func (m multiStore) Len() int {
	n := 0
	for _, s := range m {
		n += s.Len()
	}
	return n
}

func (m multiStore) Get(index int) (Record, error) {
	if index < 0 {
		return Record{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	offset := index
	for _, s := range m {
		if offset < s.Len() {
			return s.Get(offset)
		}
		offset -= s.Len()
	}
	return Record{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, m.Len())
}
