// Package desktop implements the host registry on top of freedesktop.org
// desktop entries.
//
// Installed applications are the Type=Application entries found under the
// XDG applications directories. The user directory shadows the system ones:
// the first directory that provides a desktop file id wins, and an entry
// with Hidden=true removes the id altogether. Packages coming from a system
// directory carry registry.FlagSystem; user entries that override a system
// entry carry registry.FlagUpdatedSystemApp.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/device-apps-bridge/internal/imaging"
	"github.com/ironsheep/device-apps-bridge/internal/registry"
)

// Config locates the desktop entry database.
type Config struct {
	// UserDir is the per-user applications directory.
	UserDir string

	// SystemDirs are the system applications directories, highest precedence first.
	SystemDirs []string

	// IconDirs are icon base directories searched in order.
	IconDirs []string

	// DataHome is the parent of per-application data directories.
	DataHome string

	// Debounce delays change events until a burst of file writes settles.
	Debounce time.Duration

	Starter Starter
	Logger  *zap.Logger
}

// DefaultConfig derives the search paths from the XDG base directory variables.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	dataDirs := filepath.SplitList(os.Getenv("XDG_DATA_DIRS"))
	if len(dataDirs) == 0 {
		dataDirs = []string{"/usr/local/share", "/usr/share"}
	}

	cfg := Config{
		UserDir:  filepath.Join(dataHome, "applications"),
		DataHome: dataHome,
		IconDirs: []string{filepath.Join(dataHome, "icons"), filepath.Join(home, ".icons")},
		Debounce: 200 * time.Millisecond,
	}
	for _, d := range dataDirs {
		cfg.SystemDirs = append(cfg.SystemDirs, filepath.Join(d, "applications"))
		cfg.IconDirs = append(cfg.IconDirs, filepath.Join(d, "icons"))
	}
	cfg.IconDirs = append(cfg.IconDirs, "/usr/share/pixmaps")
	return cfg
}

// Registry is a registry.Registry backed by desktop entry files.
type Registry struct {
	cfg   Config
	log   *zap.Logger
	icons *imaging.IconCache

	// scans counts directory walks.
	scans atomic.Int64

	mu        sync.Mutex
	iconPaths map[string]string // package id -> icon file last loaded
}

var (
	_ registry.Registry     = (*Registry)(nil)
	_ registry.ChangeSource = (*Registry)(nil)
)

// New returns a registry reading the directories in cfg.
func New(cfg Config) *Registry {
	if cfg.Starter == nil {
		cfg.Starter = ExecStarter{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 200 * time.Millisecond
	}
	return &Registry{
		cfg:   cfg,
		log:   cfg.Logger,
		icons: imaging.NewIconCache(),

		iconPaths: make(map[string]string),
	}
}

// located is one desktop file providing an id.
type located struct {
	path    string
	system  bool
	entry   Entry
	modTime time.Time
}

// dirs returns the applications directories in precedence order.
func (r *Registry) dirs() []string {
	var out []string
	if r.cfg.UserDir != "" {
		out = append(out, r.cfg.UserDir)
	}
	return append(out, r.cfg.SystemDirs...)
}

// scan indexes every desktop file id to its files in precedence order.
func (r *Registry) scan() map[string][]located {
	r.scans.Add(1)
	index := make(map[string][]located)
	for i, dir := range r.dirs() {
		system := r.cfg.UserDir == "" || i > 0
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == dir {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(path, ".desktop") {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			entry, err := ParseFile(path)
			if err != nil {
				r.log.Debug("skipping desktop file", zap.String("path", path), zap.Error(err))
				return nil
			}
			id := fileID(dir, path)
			index[id] = append(index[id], located{path: path, system: system, entry: entry, modTime: info.ModTime()})
			return nil
		})
		if err != nil {
			r.log.Debug("scan failed", zap.String("dir", dir), zap.Error(err))
		}
	}
	return index
}

// fileID computes the desktop file id of path below dir.
func fileID(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".desktop")
	return strings.ReplaceAll(rel, "/", "-")
}

// resolve turns the files of one id into a package, or false when the id is
// hidden or not an application.
func (r *Registry) resolve(id string, files []located) (registry.PackageInfo, bool) {
	if len(files) == 0 {
		return registry.PackageInfo{}, false
	}
	eff := files[0]
	if eff.entry.Hidden || !eff.entry.IsApplication() {
		return registry.PackageInfo{}, false
	}

	var flags registry.Flags
	if eff.system {
		flags |= registry.FlagSystem
	} else {
		for _, f := range files[1:] {
			if f.system {
				flags |= registry.FlagUpdatedSystemApp
				break
			}
		}
	}

	var intent *registry.LaunchIntent
	if eff.entry.Launchable() {
		argv, err := commandLine(eff.entry, eff.path)
		if err != nil {
			r.log.Debug("unusable Exec line", zap.String("package", id), zap.Error(err))
		} else {
			intent = &registry.LaunchIntent{PackageName: id, Argv: argv, Dir: eff.entry.Path}
		}
	}

	cat := categoryOf(eff.entry.Categories)
	return registry.PackageInfo{
		PackageName:      id,
		Label:            eff.entry.Name,
		SourcePath:       eff.path,
		DataDir:          filepath.Join(r.cfg.DataHome, id),
		VersionCode:      eff.entry.VersionCode,
		VersionName:      eff.entry.VersionName,
		Flags:            flags,
		FirstInstallTime: files[len(files)-1].modTime,
		LastUpdateTime:   eff.modTime,
		Category:         &cat,
		IconRef:          eff.entry.Icon,
		Launchable:       intent != nil,
		Intent:           intent,
	}, true
}

// InstalledPackages returns installed applications sorted by package id.
func (r *Registry) InstalledPackages(ctx context.Context) ([]registry.PackageInfo, error) {
	return r.packages(r.scan()), nil
}

func (r *Registry) packages(index map[string][]located) []registry.PackageInfo {
	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	pkgs := make([]registry.PackageInfo, 0, len(ids))
	for _, id := range ids {
		if pkg, ok := r.resolve(id, index[id]); ok {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs
}

// Package returns one installed application.
func (r *Registry) Package(ctx context.Context, packageName string) (registry.PackageInfo, error) {
	return r.lookup(packageName)
}

func (r *Registry) lookup(packageName string) (registry.PackageInfo, error) {
	pkg, ok := r.resolve(packageName, r.scan()[packageName])
	if !ok {
		return registry.PackageInfo{}, fmt.Errorf("package %s: %w", packageName, registry.ErrNotFound)
	}
	return pkg, nil
}

// ArchiveInfo parses a desktop file that need not be installed.
func (r *Registry) ArchiveInfo(ctx context.Context, path string) (registry.PackageInfo, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return registry.PackageInfo{}, fmt.Errorf("archive %s: %w", path, registry.ErrNotFound)
	}
	if err != nil {
		return registry.PackageInfo{}, err
	}
	entry, err := ParseFile(path)
	if err != nil {
		return registry.PackageInfo{}, err
	}
	if !entry.IsApplication() {
		return registry.PackageInfo{}, fmt.Errorf("archive %s is not an application: %w", path, registry.ErrNotFound)
	}

	id := strings.TrimSuffix(filepath.Base(path), ".desktop")
	pkg, ok := r.resolve(id, []located{{path: path, entry: entry, modTime: info.ModTime()}})
	if !ok {
		return registry.PackageInfo{}, fmt.Errorf("archive %s is hidden: %w", path, registry.ErrNotFound)
	}
	return pkg, nil
}

// LaunchIntent returns the command line of a launchable application.
func (r *Registry) LaunchIntent(ctx context.Context, packageName string) (*registry.LaunchIntent, error) {
	pkg, err := r.lookup(packageName)
	if err != nil {
		return nil, err
	}
	return pkg.Intent, nil
}

// LoadIcon decodes the icon referenced by pkg.
func (r *Registry) LoadIcon(ctx context.Context, pkg registry.PackageInfo) (image.Image, error) {
	path, err := findIcon(pkg.IconRef, r.cfg.IconDirs)
	if err != nil {
		return nil, err
	}
	img, err := r.icons.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("icon %s: %w", path, registry.ErrNotFound)
	}
	if err == nil {
		r.mu.Lock()
		r.iconPaths[pkg.PackageName] = path
		r.mu.Unlock()
	}
	return img, err
}

// forgetIcon drops the cached icon of a package that changed or went away.
func (r *Registry) forgetIcon(packageName string) {
	r.mu.Lock()
	path, ok := r.iconPaths[packageName]
	delete(r.iconPaths, packageName)
	r.mu.Unlock()
	if !ok {
		return
	}
	r.icons.Evict(path)
	r.log.Debug("evicted icon",
		zap.String("package", packageName),
		zap.String("path", path),
		zap.Int("cached_icons", r.icons.Len()))
}

// Start runs the command line of intent.
func (r *Registry) Start(ctx context.Context, intent registry.LaunchIntent) error {
	if err := r.cfg.Starter.Start(intent.Argv, intent.Dir); err != nil {
		return fmt.Errorf("start %s: %w", intent.PackageName, err)
	}
	return nil
}

// ReportsCategory is always true: every entry maps to a category, possibly undefined.
func (r *Registry) ReportsCategory() bool { return true }
