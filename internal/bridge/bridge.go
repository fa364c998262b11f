// Package bridge exposes the host package registry as a set of operations.
//
// A Bridge is created detached. Attach hands it a host registry and starts
// its background worker; Detach stops the worker and releases the registry.
// Every operation fails with a NOT_READY error while detached.
//
// getInstalledApps and getAppByApkFiles scan many packages and run on the
// single background worker; they return a channel that yields exactly one
// result. The other operations run on the caller's goroutine.
package bridge

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ironsheep/device-apps-bridge/internal/apps"
	"github.com/ironsheep/device-apps-bridge/internal/registry"
	"github.com/ironsheep/device-apps-bridge/internal/worker"
)

// Options configures record assembly.
type Options struct {
	// IconMaxSize caps rendered icons in pixels. Zero keeps intrinsic size.
	IconMaxSize int

	// ReportCategory emits the category field when the host supports it.
	ReportCategory bool

	Logger *zap.Logger
}

// Host is the execution context received on attach.
type Host struct {
	Registry registry.Registry
}

// Bridge serves registry queries for one attached host.
type Bridge struct {
	opts Options
	log  *zap.Logger

	mu  sync.Mutex
	att *attachment
}

type attachment struct {
	reg         registry.Registry
	builder     *apps.Builder
	queue       *worker.Queue
	cancelWatch context.CancelFunc
}

// New returns a detached bridge.
func New(opts Options) *Bridge {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{opts: opts, log: log}
}

// Attach binds the bridge to host. Attaching twice without Detach is an error.
func (b *Bridge) Attach(host Host) error {
	if host.Registry == nil {
		return errors.New("bridge: host has no registry")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.att != nil {
		return errors.New("bridge: already attached")
	}
	b.att = &attachment{
		reg:     host.Registry,
		builder: apps.NewBuilder(host.Registry, b.log, b.opts.IconMaxSize, b.opts.ReportCategory),
		queue:   worker.NewQueue(),
	}
	b.log.Debug("bridge attached")
	return nil
}

// Detach releases the host. Queued background work still completes and
// delivers its result; the returned channel closes once it has.
func (b *Bridge) Detach() <-chan struct{} {
	b.mu.Lock()
	att := b.att
	b.att = nil
	var cancelWatch context.CancelFunc
	if att != nil {
		cancelWatch = att.cancelWatch
		att.cancelWatch = nil
	}
	b.mu.Unlock()

	if att == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	if cancelWatch != nil {
		cancelWatch()
	}
	att.queue.Stop()
	b.log.Debug("bridge detached", zap.Int("pending_tasks", att.queue.Pending()))
	return att.queue.Done()
}

// Attached reports whether a host is attached.
func (b *Bridge) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.att != nil
}

func (b *Bridge) current() (*attachment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.att == nil {
		return nil, errNotReady()
	}
	return b.att, nil
}

// GetInstalledApps lists installed packages on the background worker.
func (b *Bridge) GetInstalledApps(ctx context.Context, req InstalledAppsRequest) (<-chan worker.Result[[]apps.Record], error) {
	att, err := b.current()
	if err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	ch, err := worker.Go(att.queue, func() ([]apps.Record, error) {
		return b.installedApps(ctx, att, req)
	})
	if err != nil {
		return nil, errNotReady()
	}
	return ch, nil
}

func (b *Bridge) installedApps(ctx context.Context, att *attachment, req InstalledAppsRequest) ([]apps.Record, error) {
	pkgs, err := att.reg.InstalledPackages(ctx)
	if err != nil {
		return nil, errInternal("failed to enumerate packages", err)
	}

	records := make([]apps.Record, 0, len(pkgs))
	for _, pkg := range pkgs {
		if !req.SystemApps && apps.IsSystemApp(pkg.Flags) {
			continue
		}
		if req.OnlyAppsWithLaunchIntent && !b.hasLaunchIntent(ctx, att, pkg) {
			continue
		}
		records = append(records, att.builder.Build(ctx, pkg, req.IncludeAppIcons))
	}

	b.log.Debug("listed installed apps",
		zap.Int("packages", len(pkgs)),
		zap.Int("records", len(records)),
		zap.Bool("system_apps", req.SystemApps),
		zap.Bool("only_launchable", req.OnlyAppsWithLaunchIntent))
	return records, nil
}

// hasLaunchIntent uses the intent resolved during enumeration and only asks
// the registry for launchable packages it did not resolve.
func (b *Bridge) hasLaunchIntent(ctx context.Context, att *attachment, pkg registry.PackageInfo) bool {
	if pkg.Intent != nil {
		return true
	}
	if !pkg.Launchable {
		return false
	}
	intent, err := att.reg.LaunchIntent(ctx, pkg.PackageName)
	if err != nil && !errors.Is(err, registry.ErrNotFound) {
		b.log.Debug("launch intent lookup failed", zap.String("package", pkg.PackageName), zap.Error(err))
	}
	return intent != nil
}

// GetApp returns the record of one package, or nil when it is not installed.
func (b *Bridge) GetApp(ctx context.Context, req AppRequest) (apps.Record, error) {
	if req.PackageName == "" {
		return nil, errEmptyPackageName()
	}
	att, err := b.current()
	if err != nil {
		return nil, err
	}

	pkg, err := att.reg.Package(ctx, req.PackageName)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errInternal("failed to read package", err)
	}
	return att.builder.Build(ctx, pkg, req.IncludeAppIcon), nil
}

// IsAppInstalled reports whether a package is installed.
func (b *Bridge) IsAppInstalled(ctx context.Context, req PackageRequest) (bool, error) {
	if req.PackageName == "" {
		return false, errEmptyPackageName()
	}
	att, err := b.current()
	if err != nil {
		return false, err
	}

	_, err = att.reg.Package(ctx, req.PackageName)
	if errors.Is(err, registry.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errInternal("failed to read package", err)
	}
	return true, nil
}

// OpenApp starts a package through its launch entry point. It returns false
// when the package is unknown or has no entry point.
func (b *Bridge) OpenApp(ctx context.Context, req PackageRequest) (bool, error) {
	if req.PackageName == "" {
		return false, errEmptyPackageName()
	}
	att, err := b.current()
	if err != nil {
		return false, err
	}

	intent, err := att.reg.LaunchIntent(ctx, req.PackageName)
	if errors.Is(err, registry.ErrNotFound) || (err == nil && intent == nil) {
		return false, nil
	}
	if err != nil {
		return false, errInternal("failed to resolve launch intent", err)
	}

	if err := att.reg.Start(ctx, *intent); err != nil {
		return false, errInternal("failed to start application", err)
	}
	b.log.Info("application started", zap.String("package", req.PackageName))
	return true, nil
}

// GetAppByApkFiles reads package definition files on the background worker.
// Unreadable files are skipped.
func (b *Bridge) GetAppByApkFiles(ctx context.Context, req ApkFilesRequest) (<-chan worker.Result[[]apps.Record], error) {
	if req.Paths == nil {
		return nil, errInvalidArgument()
	}
	att, err := b.current()
	if err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	ch, err := worker.Go(att.queue, func() ([]apps.Record, error) {
		records := make([]apps.Record, 0, len(req.Paths))
		for _, path := range req.Paths {
			pkg, err := att.reg.ArchiveInfo(ctx, path)
			if err != nil {
				b.log.Debug("skipping unreadable package file", zap.String("path", path), zap.Error(err))
				continue
			}
			records = append(records, att.builder.Build(ctx, pkg, req.IncludeAppIcon))
		}
		return records, nil
	})
	if err != nil {
		return nil, errNotReady()
	}
	return ch, nil
}

// ListenAppChanges streams package changes to sink until CancelAppChanges,
// Detach, or a new ListenAppChanges call replaces it.
func (b *Bridge) ListenAppChanges(sink func(registry.ChangeEvent)) error {
	att, err := b.current()
	if err != nil {
		return err
	}
	src, ok := att.reg.(registry.ChangeSource)
	if !ok {
		return errUnsupported("change listening")
	}

	// Establishing the watch scans the registry, so it runs unlocked.
	ctx, cancel := context.WithCancel(context.Background())
	if err := src.Watch(ctx, sink); err != nil {
		cancel()
		return errInternal("failed to watch registry", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.att != att {
		cancel()
		return errNotReady()
	}
	if att.cancelWatch != nil {
		att.cancelWatch()
	}
	att.cancelWatch = cancel
	b.log.Debug("listening for app changes")
	return nil
}

// CancelAppChanges stops the change stream. It is a no-op when not listening.
func (b *Bridge) CancelAppChanges() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.att == nil {
		return errNotReady()
	}
	if b.att.cancelWatch != nil {
		b.att.cancelWatch()
		b.att.cancelWatch = nil
	}
	return nil
}
