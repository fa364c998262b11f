package desktop

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ironsheep/device-apps-bridge/internal/registry"
)

// snapshot is the state of one installed package that change detection compares.
type snapshot struct {
	path       string
	modTime    time.Time
	launchable bool
}

func (r *Registry) currentState() map[string]snapshot {
	out := make(map[string]snapshot)
	for _, pkg := range r.packages(r.scan()) {
		out[pkg.PackageName] = snapshot{path: pkg.SourcePath, modTime: pkg.LastUpdateTime, launchable: pkg.Launchable}
	}
	return out
}

// diff reports the changes between two snapshots in package id order.
func diff(before, after map[string]snapshot) []registry.ChangeEvent {
	var events []registry.ChangeEvent
	for _, id := range sortedKeys(before, after) {
		old, had := before[id]
		cur, has := after[id]
		switch {
		case !had && has:
			events = append(events, registry.ChangeEvent{PackageName: id, Type: registry.ChangeInstalled})
		case had && !has:
			events = append(events, registry.ChangeEvent{PackageName: id, Type: registry.ChangeUninstalled})
		case old.launchable != cur.launchable:
			t := registry.ChangeDisabled
			if cur.launchable {
				t = registry.ChangeEnabled
			}
			events = append(events, registry.ChangeEvent{PackageName: id, Type: t})
		case old.path != cur.path || !old.modTime.Equal(cur.modTime):
			events = append(events, registry.ChangeEvent{PackageName: id, Type: registry.ChangeUpdated})
		}
	}
	return events
}

func sortedKeys(a, b map[string]snapshot) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var keys []string
	for _, m := range []map[string]snapshot{a, b} {
		for k := range m {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// Watch reports package changes to fn until ctx is cancelled.
//
// File events are debounced; once a burst settles the installed set is
// rescanned and compared with the previous scan, so precedence and Hidden
// masking are taken into account.
func (r *Registry) Watch(ctx context.Context, fn func(registry.ChangeEvent)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	watched := 0
	for _, dir := range r.dirs() {
		if err := addWatchRecursive(watcher, dir); err != nil {
			r.log.Debug("not watching directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		watched++
	}
	if watched == 0 {
		watcher.Close()
		return fmt.Errorf("no applications directory could be watched")
	}

	go r.processEvents(ctx, watcher, r.currentState(), fn)
	return nil
}

func addWatchRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

func (r *Registry) processEvents(ctx context.Context, w *fsnotify.Watcher, state map[string]snapshot, fn func(registry.ChangeEvent)) {
	defer w.Close()

	var lastChange time.Time
	pending := false
	interval := r.cfg.Debounce / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatchRecursive(w, event.Name); err != nil {
						r.log.Debug("failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
					}
					pending, lastChange = true, time.Now()
					continue
				}
			}
			if strings.HasSuffix(event.Name, ".desktop") {
				pending, lastChange = true, time.Now()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			r.log.Warn("watcher error", zap.Error(err))

		case <-ticker.C:
			if !pending || time.Since(lastChange) < r.cfg.Debounce {
				continue
			}
			pending = false
			next := r.currentState()
			for _, ev := range diff(state, next) {
				r.log.Debug("app changed", zap.String("package", ev.PackageName), zap.String("event", string(ev.Type)))
				if ev.Type == registry.ChangeUpdated || ev.Type == registry.ChangeUninstalled {
					r.forgetIcon(ev.PackageName)
				}
				fn(ev)
			}
			state = next

		case <-ctx.Done():
			return
		}
	}
}
