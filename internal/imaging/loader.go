package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"sync"

	"github.com/disintegration/imaging"
)

// ImageCache provides thread-safe caching of decoded training images.
//
// The cache stores decoded image.Image objects keyed by their file path. Dataset
// workers that revisit the same sample across epochs or resampling attempts get
// the cached copy without disk I/O. Cached images are never mutated by this
// module; every transform produces new images.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
// A cache created with NewImageCache(0) is unbounded. With a positive limit the
// cache is cleared whenever it would exceed that many entries.
//
// # Example Usage
//
//	cache := imaging.NewImageCache(512)
//	img, err := cache.Load("data/train/img_1.jpg")
//	if err != nil {
//	    return err
//	}
type ImageCache struct {
	mu     sync.RWMutex
	limit  int
	images map[string]image.Image
}

// NewImageCache creates an empty cache holding at most limit images. A limit
// of zero or less disables the bound.
func NewImageCache(limit int) *ImageCache {
	return &ImageCache{
		limit:  limit,
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk if not cached.
//
// Supported formats are PNG, JPEG, and GIF. JPEG files are rotated according to
// their EXIF orientation tag, so annotation coordinates written against the
// displayed image line up with the decoded pixels.
//
// The image is cached using the exact path string provided.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}

	c.mu.Lock()
	if c.limit > 0 && len(c.images) >= c.limit {
		c.images = make(map[string]image.Image)
	}
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Dimensions returns the width and height of img.
func Dimensions(img image.Image) (width, height int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}
