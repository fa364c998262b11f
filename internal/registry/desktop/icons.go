package desktop

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/device-apps-bridge/internal/registry"
)

var (
	iconSizes = []string{"512x512", "256x256", "192x192", "128x128", "96x96", "72x72", "64x64", "48x48", "32x32", "24x24", "16x16"}
	iconExts  = []string{".png", ".webp", ".bmp", ".jpg", ".jpeg", ".gif"}
)

// findIcon resolves an Icon value to a raster image file.
//
// Absolute paths are used as is. Names are looked up in the hicolor theme of
// every base dir, largest size first, then directly in the base dir the way
// pixmaps are laid out.
func findIcon(name string, baseDirs []string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("no icon: %w", registry.ErrNotFound)
	}
	if filepath.IsAbs(name) {
		if isFile(name) {
			return name, nil
		}
		return "", fmt.Errorf("icon %s: %w", name, registry.ErrNotFound)
	}

	candidates := []string{name}
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" && hasIconExt(ext) {
		candidates = []string{strings.TrimSuffix(name, filepath.Ext(name))}
	}

	for _, base := range baseDirs {
		for _, n := range candidates {
			for _, size := range iconSizes {
				if p := firstWithExt(filepath.Join(base, "hicolor", size, "apps", n)); p != "" {
					return p, nil
				}
			}
			if p := firstWithExt(filepath.Join(base, n)); p != "" {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("icon %s: %w", name, registry.ErrNotFound)
}

func firstWithExt(stem string) string {
	for _, ext := range iconExts {
		if p := stem + ext; isFile(p) {
			return p
		}
	}
	return ""
}

func hasIconExt(ext string) bool {
	for _, e := range iconExts {
		if e == ext {
			return true
		}
	}
	return false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
