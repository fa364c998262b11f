package fake

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ironsheep/device-apps-bridge/internal/imaging"
	"github.com/ironsheep/device-apps-bridge/internal/registry"
)

// fixtureEntry is one package in a fixture file.
type fixtureEntry struct {
	PackageName string             `json:"package_name"`
	Label       string             `json:"label"`
	SourcePath  string             `json:"source_path"`
	DataDir     string             `json:"data_dir"`
	VersionCode int64              `json:"version_code"`
	VersionName string             `json:"version_name"`
	Flags       registry.Flags     `json:"flags"`
	InstallTime int64              `json:"install_time"`
	UpdateTime  int64              `json:"update_time"`
	Category    *registry.Category `json:"category"`
	IconPath    string             `json:"icon_path"`
	Launchable  bool               `json:"launchable"`
}

// fixture is the document read by Load.
type fixture struct {
	ReportsCategory *bool          `json:"reports_category"`
	Packages        []fixtureEntry `json:"packages"`
}

// Load reads a registry from a JSON fixture document. Times are Unix
// milliseconds; icon_path names an image file decoded at load time.
func Load(r io.Reader) (*Registry, error) {
	var doc fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding fixture: %w", err)
	}

	reg := New()
	if doc.ReportsCategory != nil {
		reg.SetReportsCategory(*doc.ReportsCategory)
	}
	icons := imaging.NewIconCache()
	for i, e := range doc.Packages {
		if e.PackageName == "" {
			return nil, fmt.Errorf("fixture package %d has no package_name", i)
		}
		pkg := registry.PackageInfo{
			PackageName:      e.PackageName,
			Label:            e.Label,
			SourcePath:       e.SourcePath,
			DataDir:          e.DataDir,
			VersionCode:      e.VersionCode,
			VersionName:      e.VersionName,
			Flags:            e.Flags,
			FirstInstallTime: time.UnixMilli(e.InstallTime),
			LastUpdateTime:   time.UnixMilli(e.UpdateTime),
			Category:         e.Category,
			Launchable:       e.Launchable,
		}
		if e.IconPath != "" {
			img, err := icons.Load(e.IconPath)
			if err != nil {
				return nil, fmt.Errorf("fixture package %s: %w", e.PackageName, err)
			}
			pkg.IconRef = e.IconPath
			reg.SetIcon(e.IconPath, img)
		}
		reg.Install(pkg)
	}
	return reg, nil
}

// LoadFile reads a fixture from path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
