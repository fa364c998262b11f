// Package fake provides an in-memory registry for tests and fixture runs.
package fake

import (
	"context"
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/ironsheep/device-apps-bridge/internal/registry"
)

// Registry is an in-memory registry.Registry and registry.ChangeSource.
type Registry struct {
	mu       sync.Mutex
	packages []registry.PackageInfo
	archives map[string]registry.PackageInfo
	icons    map[string]image.Image
	started  []registry.LaunchIntent
	watchers []func(registry.ChangeEvent)
	category bool

	// StartErr is returned by Start when set.
	StartErr error
}

// New returns a registry holding pkgs in the given order.
func New(pkgs ...registry.PackageInfo) *Registry {
	return &Registry{
		packages: pkgs,
		archives: make(map[string]registry.PackageInfo),
		icons:    make(map[string]image.Image),
		category: true,
	}
}

// SetReportsCategory toggles category reporting.
func (r *Registry) SetReportsCategory(v bool) {
	r.mu.Lock()
	r.category = v
	r.mu.Unlock()
}

// SetIcon registers the icon returned for a package's IconRef.
func (r *Registry) SetIcon(ref string, img image.Image) {
	r.mu.Lock()
	r.icons[ref] = img
	r.mu.Unlock()
}

// AddArchive registers a definition file readable through ArchiveInfo.
func (r *Registry) AddArchive(path string, pkg registry.PackageInfo) {
	r.mu.Lock()
	pkg.SourcePath = path
	r.archives[path] = pkg
	r.mu.Unlock()
}

// Install adds or replaces a package.
func (r *Registry) Install(pkg registry.PackageInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.packages {
		if p.PackageName == pkg.PackageName {
			r.packages[i] = pkg
			return
		}
	}
	r.packages = append(r.packages, pkg)
}

// Uninstall removes a package.
func (r *Registry) Uninstall(packageName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.packages {
		if p.PackageName == packageName {
			r.packages = append(r.packages[:i], r.packages[i+1:]...)
			return
		}
	}
}

// Started returns the intents passed to Start.
func (r *Registry) Started() []registry.LaunchIntent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]registry.LaunchIntent(nil), r.started...)
}

// Emit sends ev to every active watcher.
func (r *Registry) Emit(ev registry.ChangeEvent) {
	r.mu.Lock()
	watchers := slices.Clone(r.watchers)
	r.mu.Unlock()
	for _, fn := range watchers {
		fn(ev)
	}
}

// InstalledPackages returns the packages in installation order.
func (r *Registry) InstalledPackages(ctx context.Context) ([]registry.PackageInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]registry.PackageInfo(nil), r.packages...), nil
}

// Package returns an installed package or registry.ErrNotFound.
func (r *Registry) Package(ctx context.Context, packageName string) (registry.PackageInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.packages {
		if p.PackageName == packageName {
			return p, nil
		}
	}
	return registry.PackageInfo{}, fmt.Errorf("package %s: %w", packageName, registry.ErrNotFound)
}

// ArchiveInfo returns a package registered with AddArchive.
func (r *Registry) ArchiveInfo(ctx context.Context, path string) (registry.PackageInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.archives[path]; ok {
		return p, nil
	}
	return registry.PackageInfo{}, fmt.Errorf("archive %s: %w", path, registry.ErrNotFound)
}

// LaunchIntent returns pkg.Intent when set, otherwise a command named after
// the package. Packages that are not launchable have none.
func (r *Registry) LaunchIntent(ctx context.Context, packageName string) (*registry.LaunchIntent, error) {
	p, err := r.Package(ctx, packageName)
	if err != nil {
		return nil, err
	}
	if !p.Launchable {
		return nil, nil
	}
	if p.Intent != nil {
		return p.Intent, nil
	}
	return &registry.LaunchIntent{PackageName: p.PackageName, Argv: []string{p.PackageName}}, nil
}

// LoadIcon returns the image registered for pkg.IconRef with SetIcon.
func (r *Registry) LoadIcon(ctx context.Context, pkg registry.PackageInfo) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if img, ok := r.icons[pkg.IconRef]; ok && pkg.IconRef != "" {
		return img, nil
	}
	return nil, fmt.Errorf("icon for %s: %w", pkg.PackageName, registry.ErrNotFound)
}

// Start records intent, or fails with StartErr.
func (r *Registry) Start(ctx context.Context, intent registry.LaunchIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.StartErr != nil {
		return r.StartErr
	}
	r.started = append(r.started, intent)
	return nil
}

// ReportsCategory reports the value set with SetReportsCategory. The default is true.
func (r *Registry) ReportsCategory() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.category
}

// Watch registers fn until ctx is done.
func (r *Registry) Watch(ctx context.Context, fn func(registry.ChangeEvent)) error {
	r.mu.Lock()
	idx := len(r.watchers)
	r.watchers = append(r.watchers, fn)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		r.watchers[idx] = func(registry.ChangeEvent) {}
		r.mu.Unlock()
	}()
	return nil
}
