package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// IconCache provides thread-safe caching of decoded icon files.
//
// Entries are keyed by path and remember the file's modification time and
// size. A Load for a path whose file changed on disk decodes it again, so an
// application update that replaces its icon is picked up without a restart.
//
// IconCache is safe for concurrent use by multiple goroutines.
type IconCache struct {
	mu    sync.RWMutex
	icons map[string]cachedIcon
}

type cachedIcon struct {
	img     image.Image
	modTime time.Time
	size    int64
}

// NewIconCache creates and initializes a new empty icon cache.
func NewIconCache() *IconCache {
	return &IconCache{
		icons: make(map[string]cachedIcon),
	}
}

// Load retrieves an icon from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG, GIF, BMP and WebP. Vector formats are not
// decoded and return an error.
//
// # Errors
//
//   - Returns an error wrapping os.ErrNotExist if the file does not exist
//   - Returns an error if the file is not a decodable image
func (c *IconCache) Load(path string) (image.Image, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat icon: %w", err)
	}

	c.mu.RLock()
	if e, ok := c.icons[path]; ok && e.modTime.Equal(stat.ModTime()) && e.size == stat.Size() {
		c.mu.RUnlock()
		return e.img, nil
	}
	c.mu.RUnlock()

	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode icon %s: %w", path, err)
	}

	c.mu.Lock()
	c.icons[path] = cachedIcon{img: img, modTime: stat.ModTime(), size: stat.Size()}
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached icons.
func (c *IconCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.icons)
}

// Evict removes a specific icon from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *IconCache) Evict(path string) {
	c.mu.Lock()
	delete(c.icons, path)
	c.mu.Unlock()
}
