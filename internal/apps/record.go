// Package apps assembles Application Records from registry packages.
package apps

import (
	"context"

	"go.uber.org/zap"

	"github.com/ironsheep/device-apps-bridge/internal/imaging"
	"github.com/ironsheep/device-apps-bridge/internal/registry"
)

// Record field names.
const (
	FieldAppName     = "app_name"
	FieldApkFilePath = "apk_file_path"
	FieldPackageName = "package_name"
	FieldVersionCode = "version_code"
	FieldVersionName = "version_name"
	FieldDataDir     = "data_dir"
	FieldSystemApp   = "system_app"
	FieldInstallTime = "install_time"
	FieldUpdateTime  = "update_time"
	FieldCategory    = "category"
	FieldAppIcon     = "app_icon"
)

// Record is the transport-neutral metadata bundle of one application.
type Record map[string]any

// PackageName returns the record's package identifier.
func (r Record) PackageName() string {
	s, _ := r[FieldPackageName].(string)
	return s
}

// IsSystemApp reports whether flags classify a package as a system app.
func IsSystemApp(flags registry.Flags) bool {
	return registry.HasAny(flags, registry.SystemAppMask)
}

// Builder turns PackageInfo values into Records.
type Builder struct {
	reg         registry.Registry
	log         *zap.Logger
	iconMaxSize int
	category    bool
}

// NewBuilder returns a Builder reading icons from reg.
//
// iconMaxSize caps rendered icons; zero keeps intrinsic dimensions. category
// is combined with reg.ReportsCategory to decide whether the category field
// is emitted.
func NewBuilder(reg registry.Registry, log *zap.Logger, iconMaxSize int, category bool) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		reg:         reg,
		log:         log,
		iconMaxSize: iconMaxSize,
		category:    category && reg.ReportsCategory(),
	}
}

// Build assembles the record for pkg. Icon failures omit the icon field.
func (b *Builder) Build(ctx context.Context, pkg registry.PackageInfo, includeIcon bool) Record {
	rec := Record{
		FieldAppName:     pkg.Label,
		FieldApkFilePath: pkg.SourcePath,
		FieldPackageName: pkg.PackageName,
		FieldVersionCode: pkg.VersionCode,
		FieldVersionName: pkg.VersionName,
		FieldDataDir:     pkg.DataDir,
		FieldSystemApp:   IsSystemApp(pkg.Flags),
		FieldInstallTime: pkg.FirstInstallTime.UnixMilli(),
		FieldUpdateTime:  pkg.LastUpdateTime.UnixMilli(),
	}

	if b.category {
		cat := registry.CategoryUndefined
		if pkg.Category != nil {
			cat = *pkg.Category
		}
		rec[FieldCategory] = int(cat)
	}

	if includeIcon {
		if icon, ok := b.icon(ctx, pkg); ok {
			rec[FieldAppIcon] = icon
		}
	}

	return rec
}

func (b *Builder) icon(ctx context.Context, pkg registry.PackageInfo) (string, bool) {
	img, err := b.reg.LoadIcon(ctx, pkg)
	if err != nil {
		b.log.Debug("icon unavailable", zap.String("package", pkg.PackageName), zap.Error(err))
		return "", false
	}
	encoded, err := imaging.EncodeIcon(img, b.iconMaxSize)
	if err != nil {
		b.log.Debug("icon encoding failed", zap.String("package", pkg.PackageName), zap.Error(err))
		return "", false
	}
	return encoded, true
}
