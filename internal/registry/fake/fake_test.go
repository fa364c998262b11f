package fake

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/device-apps-bridge/internal/registry"
)

func TestRegistry_InstallUninstall(t *testing.T) {
	ctx := context.Background()
	r := New(registry.PackageInfo{PackageName: "a"}, registry.PackageInfo{PackageName: "b"})
	r.Install(registry.PackageInfo{PackageName: "a", Label: "A2"})
	r.Install(registry.PackageInfo{PackageName: "c"})
	r.Uninstall("b")

	pkgs, err := r.InstalledPackages(ctx)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "A2", pkgs[0].Label)
	assert.Equal(t, "c", pkgs[1].PackageName)

	_, err = r.Package(ctx, "b")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestRegistry_WatchStopsOnCancel(t *testing.T) {
	r := New()
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan registry.ChangeEvent, 4)
	require.NoError(t, r.Watch(ctx, func(ev registry.ChangeEvent) {
		select {
		case got <- ev:
		default:
		}
	}))

	r.Emit(registry.ChangeEvent{PackageName: "a", Type: registry.ChangeInstalled})
	assert.Equal(t, "a", (<-got).PackageName)

	cancel()
	assert.Eventually(t, func() bool {
		r.Emit(registry.ChangeEvent{PackageName: "b", Type: registry.ChangeUninstalled})
		select {
		case <-got:
			return false
		default:
			return true
		}
	}, time.Second, 10*time.Millisecond)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	iconPath := filepath.Join(dir, "icon.png")
	f, err := os.Create(iconPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 3, 3))))
	require.NoError(t, f.Close())

	doc := `{
		"reports_category": false,
		"packages": [
			{"package_name": "org.example.Notes", "label": "Notes", "version_code": 4, "flags": 1,
			 "install_time": 1700000000000, "update_time": 1700000500000, "launchable": true,
			 "icon_path": "` + iconPath + `"},
			{"package_name": "org.example.Daemon", "category": 7}
		]
	}`

	r, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.False(t, r.ReportsCategory())

	ctx := context.Background()
	notes, err := r.Package(ctx, "org.example.Notes")
	require.NoError(t, err)
	assert.Equal(t, registry.FlagSystem, notes.Flags)
	assert.Equal(t, int64(1700000500000), notes.LastUpdateTime.UnixMilli())

	img, err := r.LoadIcon(ctx, notes)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())

	daemon, err := r.Package(ctx, "org.example.Daemon")
	require.NoError(t, err)
	require.NotNil(t, daemon.Category)
	assert.Equal(t, registry.CategoryProductivity, *daemon.Category)

	intent, err := r.LaunchIntent(ctx, "org.example.Daemon")
	require.NoError(t, err)
	assert.Nil(t, intent)
}

func TestLoad_Invalid(t *testing.T) {
	for name, doc := range map[string]string{
		"malformed":     `{"packages": [`,
		"unknown field": `{"packages": [], "extra": 1}`,
		"no name":       `{"packages": [{"label": "x"}]}`,
		"missing icon":  `{"packages": [{"package_name": "x", "icon_path": "/nonexistent.png"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestRegistry_EmitReachesEveryWatcher(t *testing.T) {
	r := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var first, second []registry.ChangeEvent
	require.NoError(t, r.Watch(ctx, func(ev registry.ChangeEvent) { first = append(first, ev) }))
	require.NoError(t, r.Watch(ctx, func(ev registry.ChangeEvent) { second = append(second, ev) }))

	ev := registry.ChangeEvent{PackageName: "a", Type: registry.ChangeUpdated}
	r.Emit(ev)
	assert.Equal(t, []registry.ChangeEvent{ev}, first)
	assert.Equal(t, []registry.ChangeEvent{ev}, second)
}

func TestRegistry_LaunchIntentPrefersResolved(t *testing.T) {
	resolved := &registry.LaunchIntent{PackageName: "a", Argv: []string{"/opt/a/run"}}
	r := New(registry.PackageInfo{PackageName: "a", Launchable: true, Intent: resolved})

	intent, err := r.LaunchIntent(context.Background(), "a")
	require.NoError(t, err)
	assert.Same(t, resolved, intent)
}
