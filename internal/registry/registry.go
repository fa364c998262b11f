// Package registry defines the host package registry the bridge queries.
//
// A Registry is the only window the bridge has onto the host: it enumerates
// installed packages, resolves single packages, reads definition files that
// are not installed, loads icons and starts applications. Implementations
// report unknown packages with ErrNotFound so callers can turn a failed
// lookup into a negative result instead of a fault.
package registry

import (
	"context"
	"errors"
	"image"
	"time"
)

// ErrNotFound is returned when a package, definition file or icon does not exist.
var ErrNotFound = errors.New("not found")

// Flags is the raw flag set a host attaches to a package.
type Flags uint32

const (
	// FlagSystem marks a package shipped with the host.
	FlagSystem Flags = 1 << 0

	// FlagUpdatedSystemApp marks a system package that has been replaced by a
	// user-level update.
	FlagUpdatedSystemApp Flags = 1 << 7

	// SystemAppMask selects every flag that classifies a package as a system app.
	SystemAppMask = FlagSystem | FlagUpdatedSystemApp
)

// HasAny reports whether any bit of mask is set in flags.
func HasAny(flags, mask Flags) bool {
	return flags&mask != 0
}

// Category is the coarse application category a host may report.
type Category int

// Category values. The numbering is part of the record wire format.
const (
	CategoryUndefined     Category = -1
	CategoryGame          Category = 0
	CategoryAudio         Category = 1
	CategoryVideo         Category = 2
	CategoryImage         Category = 3
	CategorySocial        Category = 4
	CategoryNews          Category = 5
	CategoryMaps          Category = 6
	CategoryProductivity  Category = 7
	CategoryAccessibility Category = 8
)

// PackageInfo is the registry's view of one package.
type PackageInfo struct {
	PackageName      string
	Label            string
	SourcePath       string
	DataDir          string
	VersionCode      int64
	VersionName      string
	Flags            Flags
	FirstInstallTime time.Time
	LastUpdateTime   time.Time

	// Category is nil when the host does not report categories.
	Category *Category

	// IconRef is the host-specific reference used by LoadIcon.
	IconRef string

	// Launchable is true when the package has an entry point the host can start.
	Launchable bool

	// Intent is the entry point when the registry resolved it while listing.
	// A nil Intent on a launchable package means callers ask LaunchIntent.
	Intent *LaunchIntent
}

// LaunchIntent describes how to start a package.
type LaunchIntent struct {
	PackageName string
	Argv        []string
	Dir         string
}

// Registry is the host package registry.
type Registry interface {
	// InstalledPackages returns every installed package in registry order.
	InstalledPackages(ctx context.Context) ([]PackageInfo, error)

	// Package returns one installed package or ErrNotFound.
	Package(ctx context.Context, packageName string) (PackageInfo, error)

	// ArchiveInfo reads a package definition file that may not be installed.
	ArchiveInfo(ctx context.Context, path string) (PackageInfo, error)

	// LaunchIntent returns the entry point of a package, or nil when it has none.
	// Unknown packages return ErrNotFound.
	LaunchIntent(ctx context.Context, packageName string) (*LaunchIntent, error)

	// LoadIcon decodes the icon of pkg at its intrinsic size.
	LoadIcon(ctx context.Context, pkg PackageInfo) (image.Image, error)

	// Start activates a launch intent.
	Start(ctx context.Context, intent LaunchIntent) error

	// ReportsCategory tells whether PackageInfo.Category is meaningful on this host.
	ReportsCategory() bool
}

// ChangeType is the kind of change reported for a package.
type ChangeType string

const (
	ChangeInstalled   ChangeType = "installed"
	ChangeUpdated     ChangeType = "updated"
	ChangeUninstalled ChangeType = "uninstalled"
	ChangeEnabled     ChangeType = "enabled"
	ChangeDisabled    ChangeType = "disabled"
)

// ChangeEvent reports that a package was installed, updated or removed.
type ChangeEvent struct {
	PackageName string     `json:"package_name"`
	Type        ChangeType `json:"event_type"`
}

// ChangeSource is implemented by registries that can report package changes.
//
// Watch delivers events to fn until ctx is cancelled. It returns once the
// watch is established; fn is called from a goroutine owned by the source.
type ChangeSource interface {
	Watch(ctx context.Context, fn func(ChangeEvent)) error
}
