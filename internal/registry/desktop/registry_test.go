package desktop

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ironsheep/device-apps-bridge/internal/registry"
)

type recordingStarter struct {
	mu    sync.Mutex
	calls [][]string
	dirs  []string
}

func (s *recordingStarter) Start(argv []string, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, argv)
	s.dirs = append(s.dirs, dir)
	return nil
}

type layout struct {
	user, system, icons, data string
}

func newLayout(t *testing.T) layout {
	t.Helper()
	root := t.TempDir()
	l := layout{
		user:   filepath.Join(root, "user", "applications"),
		system: filepath.Join(root, "system", "applications"),
		icons:  filepath.Join(root, "icons"),
		data:   filepath.Join(root, "data"),
	}
	for _, d := range []string{l.user, l.system, l.icons} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	return l
}

func writeEntry(t *testing.T, dir, rel, body string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("[Desktop Entry]\n"+body), 0o644))
	return path
}

func writeIcon(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func (l layout) registry(t *testing.T, starter Starter) *Registry {
	return New(Config{
		UserDir:    l.user,
		SystemDirs: []string{l.system},
		IconDirs:   []string{l.icons},
		DataHome:   l.data,
		Debounce:   20 * time.Millisecond,
		Starter:    starter,
		Logger:     zaptest.NewLogger(t),
	})
}

func populate(t *testing.T, l layout) {
	writeEntry(t, l.system, "org.host.Settings.desktop", "Type=Application\nName=Settings\nExec=settings\nCategories=Settings;\n")
	writeEntry(t, l.system, "org.host.Browser.desktop", "Type=Application\nName=Browser\nExec=browser %u\nCategories=Network;\n")
	writeEntry(t, l.user, "org.host.Browser.desktop", "Type=Application\nName=Browser Nightly\nExec=browser-nightly %u\n")
	writeEntry(t, l.user, "games/chess.desktop", "Type=Application\nName=Chess\nExec=chess\nIcon=chess\nCategories=Game;BoardGame;\n")
	writeEntry(t, l.user, "helper.desktop", "Type=Application\nName=Helper\nExec=helper\nNoDisplay=true\n")
	writeEntry(t, l.system, "removed.desktop", "Type=Application\nName=Removed\nExec=removed\n")
	writeEntry(t, l.user, "removed.desktop", "Type=Application\nHidden=true\n")
	writeEntry(t, l.user, "docs.desktop", "Type=Link\nName=Docs\nURL=https://example.org\n")
	require.NoError(t, os.WriteFile(filepath.Join(l.user, "broken.desktop"), []byte("garbage"), 0o644))
}

func TestInstalledPackages(t *testing.T) {
	l := newLayout(t)
	populate(t, l)
	r := l.registry(t, nil)

	pkgs, err := r.InstalledPackages(context.Background())
	require.NoError(t, err)

	byID := make(map[string]registry.PackageInfo)
	var ids []string
	for _, p := range pkgs {
		byID[p.PackageName] = p
		ids = append(ids, p.PackageName)
	}
	assert.Equal(t, []string{"games-chess", "helper", "org.host.Browser", "org.host.Settings"}, ids)

	settings := byID["org.host.Settings"]
	assert.Equal(t, registry.FlagSystem, settings.Flags)
	assert.Equal(t, filepath.Join(l.data, "org.host.Settings"), settings.DataDir)
	require.NotNil(t, settings.Category)
	assert.Equal(t, registry.CategoryUndefined, *settings.Category)

	browser := byID["org.host.Browser"]
	assert.Equal(t, "Browser Nightly", browser.Label)
	assert.Equal(t, registry.FlagUpdatedSystemApp, browser.Flags)
	assert.Equal(t, filepath.Join(l.user, "org.host.Browser.desktop"), browser.SourcePath)

	chess := byID["games-chess"]
	assert.Equal(t, registry.Flags(0), chess.Flags)
	assert.Equal(t, registry.CategoryGame, *chess.Category)
	assert.True(t, chess.Launchable)

	assert.False(t, byID["helper"].Launchable)
}

func TestInstallTimesFollowPrecedence(t *testing.T) {
	l := newLayout(t)
	sys := writeEntry(t, l.system, "app.desktop", "Type=Application\nName=App\nExec=app\n")
	usr := writeEntry(t, l.user, "app.desktop", "Type=Application\nName=App\nExec=app2\n")
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(sys, old, old))
	require.NoError(t, os.Chtimes(usr, recent, recent))

	pkg, err := l.registry(t, nil).Package(context.Background(), "app")
	require.NoError(t, err)
	assert.True(t, pkg.FirstInstallTime.Equal(old))
	assert.True(t, pkg.LastUpdateTime.Equal(recent))
}

func TestPackage_NotFound(t *testing.T) {
	l := newLayout(t)
	populate(t, l)
	r := l.registry(t, nil)

	for _, id := range []string{"missing", "removed", "docs", "broken"} {
		_, err := r.Package(context.Background(), id)
		assert.ErrorIs(t, err, registry.ErrNotFound, id)
	}
}

func TestMissingDirectories(t *testing.T) {
	r := New(Config{UserDir: "/nonexistent/user", SystemDirs: []string{"/nonexistent/system"}})
	pkgs, err := r.InstalledPackages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}

func TestLaunchIntentAndStart(t *testing.T) {
	l := newLayout(t)
	populate(t, l)
	writeEntry(t, l.user, "tool.desktop", "Type=Application\nName=Tool\nExec=\"/opt/my tool/run\" --open %F\nPath=/opt/my tool\n")
	starter := &recordingStarter{}
	r := l.registry(t, starter)
	ctx := context.Background()

	intent, err := r.LaunchIntent(ctx, "tool")
	require.NoError(t, err)
	require.NotNil(t, intent)
	assert.Equal(t, []string{"/opt/my tool/run", "--open"}, intent.Argv)
	assert.Equal(t, "/opt/my tool", intent.Dir)

	require.NoError(t, r.Start(ctx, *intent))
	assert.Equal(t, [][]string{{"/opt/my tool/run", "--open"}}, starter.calls)

	intent, err = r.LaunchIntent(ctx, "helper")
	require.NoError(t, err)
	assert.Nil(t, intent, "NoDisplay entries have no entry point")

	_, err = r.LaunchIntent(ctx, "missing")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestLoadIcon(t *testing.T) {
	l := newLayout(t)
	populate(t, l)
	writeIcon(t, filepath.Join(l.icons, "hicolor", "48x48", "apps", "chess.png"), 48)
	writeIcon(t, filepath.Join(l.icons, "hicolor", "128x128", "apps", "chess.png"), 128)
	r := l.registry(t, nil)
	ctx := context.Background()

	chess, err := r.Package(ctx, "games-chess")
	require.NoError(t, err)
	img, err := r.LoadIcon(ctx, chess)
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx(), "largest size wins")

	settings, err := r.Package(ctx, "org.host.Settings")
	require.NoError(t, err)
	_, err = r.LoadIcon(ctx, settings)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestFindIcon(t *testing.T) {
	l := newLayout(t)
	abs := filepath.Join(l.icons, "custom.png")
	writeIcon(t, abs, 8)
	writeIcon(t, filepath.Join(l.icons, "pix.png"), 8)

	got, err := findIcon(abs, nil)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	got, err = findIcon("pix", []string{l.icons})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.icons, "pix.png"), got)

	got, err = findIcon("pix.png", []string{l.icons})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.icons, "pix.png"), got)

	_, err = findIcon("/nonexistent/icon.png", nil)
	assert.ErrorIs(t, err, registry.ErrNotFound)
	_, err = findIcon("", []string{l.icons})
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestArchiveInfo(t *testing.T) {
	l := newLayout(t)
	outside := t.TempDir()
	path := writeEntry(t, outside, "portable.desktop", "Type=Application\nName=Portable\nExec=portable\nX-AppVersion=1.0\n")
	link := writeEntry(t, outside, "link.desktop", "Type=Link\nURL=x\n")
	hidden := writeEntry(t, outside, "gone.desktop", "Type=Application\nName=Gone\nExec=gone\nHidden=true\n")
	r := l.registry(t, nil)
	ctx := context.Background()

	pkg, err := r.ArchiveInfo(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "portable", pkg.PackageName)
	assert.Equal(t, path, pkg.SourcePath)
	assert.Equal(t, "1.0", pkg.VersionName)
	assert.Equal(t, registry.Flags(0), pkg.Flags)

	_, err = r.ArchiveInfo(ctx, filepath.Join(outside, "missing.desktop"))
	assert.ErrorIs(t, err, registry.ErrNotFound)
	_, err = r.ArchiveInfo(ctx, link)
	assert.ErrorIs(t, err, registry.ErrNotFound)
	_, err = r.ArchiveInfo(ctx, hidden)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestInstalledPackages_ResolvesIntentsInOneScan(t *testing.T) {
	l := newLayout(t)
	populate(t, l)
	for i := 0; i < 20; i++ {
		writeEntry(t, l.user, fmt.Sprintf("bulk/app%02d.desktop", i), fmt.Sprintf("Type=Application\nName=App %d\nExec=app%d\n", i, i))
	}
	r := l.registry(t, nil)

	pkgs, err := r.InstalledPackages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.scans.Load())

	launchable := 0
	for _, p := range pkgs {
		assert.Equal(t, p.Launchable, p.Intent != nil, p.PackageName)
		if p.Intent != nil {
			launchable++
			assert.Equal(t, p.PackageName, p.Intent.PackageName)
		}
	}
	assert.Equal(t, 23, launchable, "bulk apps plus chess, browser and settings")
}

func TestLaunchable_UnusableExec(t *testing.T) {
	l := newLayout(t)
	writeEntry(t, l.user, "codes.desktop", "Type=Application\nName=Codes\nExec=%f %u\n")
	r := l.registry(t, nil)
	ctx := context.Background()

	pkg, err := r.Package(ctx, "codes")
	require.NoError(t, err)
	assert.False(t, pkg.Launchable)

	intent, err := r.LaunchIntent(ctx, "codes")
	require.NoError(t, err)
	assert.Nil(t, intent)
}

func TestForgetIcon(t *testing.T) {
	l := newLayout(t)
	populate(t, l)
	writeIcon(t, filepath.Join(l.icons, "hicolor", "48x48", "apps", "chess.png"), 48)
	r := l.registry(t, nil)
	ctx := context.Background()

	chess, err := r.Package(ctx, "games-chess")
	require.NoError(t, err)
	_, err = r.LoadIcon(ctx, chess)
	require.NoError(t, err)
	assert.Equal(t, 1, r.icons.Len())

	r.forgetIcon("games-chess")
	assert.Equal(t, 0, r.icons.Len())
	r.forgetIcon("games-chess")
}

func TestFileID(t *testing.T) {
	assert.Equal(t, "org.example.App", fileID("/apps", "/apps/org.example.App.desktop"))
	assert.Equal(t, "kde-konsole", fileID("/apps", "/apps/kde/konsole.desktop"))
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/home")
	t.Setenv("XDG_DATA_DIRS", "/xdg/a:/xdg/b")

	cfg := DefaultConfig()
	assert.Equal(t, "/xdg/home/applications", cfg.UserDir)
	assert.Equal(t, []string{"/xdg/a/applications", "/xdg/b/applications"}, cfg.SystemDirs)
	assert.Equal(t, "/xdg/home", cfg.DataHome)
	assert.Contains(t, cfg.IconDirs, "/xdg/a/icons")
	assert.Equal(t, "/usr/share/pixmaps", cfg.IconDirs[len(cfg.IconDirs)-1])
}
