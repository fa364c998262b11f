package bridge

import (
	"bytes"
	"encoding/json"
)

// InstalledAppsRequest holds the Query Options of getInstalledApps.
type InstalledAppsRequest struct {
	SystemApps               bool
	IncludeAppIcons          bool
	OnlyAppsWithLaunchIntent bool
}

// AppRequest is the argument set of getApp.
type AppRequest struct {
	PackageName    string
	IncludeAppIcon bool
}

// PackageRequest is the argument set of isAppInstalled and openApp.
type PackageRequest struct {
	PackageName string
}

// ApkFilesRequest is the argument set of getAppByApkFiles.
type ApkFilesRequest struct {
	Paths          []string
	IncludeAppIcon bool
}

// args is a loosely typed argument mapping as received from the shell.
type args map[string]json.RawMessage

func parseArgs(raw json.RawMessage) (args, error) {
	a := args{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return a, nil
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, errInvalidArgument()
	}
	return a, nil
}

// flag reads an optional boolean. Absent or null is false.
func (a args) flag(name string) (bool, error) {
	v, ok := a[name]
	if !ok || isNull(v) {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false, errInvalidArgument()
	}
	return b, nil
}

// packageName reads the required package_name argument.
func (a args) packageName() (string, error) {
	v, ok := a["package_name"]
	if !ok || isNull(v) {
		return "", errEmptyPackageName()
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil || s == "" {
		return "", errEmptyPackageName()
	}
	return s, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// ParseInstalledAppsRequest validates getInstalledApps arguments.
func ParseInstalledAppsRequest(raw json.RawMessage) (InstalledAppsRequest, error) {
	var req InstalledAppsRequest
	a, err := parseArgs(raw)
	if err != nil {
		return req, err
	}
	if req.SystemApps, err = a.flag("system_apps"); err != nil {
		return req, err
	}
	if req.IncludeAppIcons, err = a.flag("include_app_icons"); err != nil {
		return req, err
	}
	if req.OnlyAppsWithLaunchIntent, err = a.flag("only_apps_with_launch_intent"); err != nil {
		return req, err
	}
	return req, nil
}

// ParseAppRequest validates getApp arguments.
func ParseAppRequest(raw json.RawMessage) (AppRequest, error) {
	var req AppRequest
	a, err := parseArgs(raw)
	if err != nil {
		return req, errEmptyPackageName()
	}
	if req.PackageName, err = a.packageName(); err != nil {
		return req, err
	}
	if req.IncludeAppIcon, err = a.flag("include_app_icon"); err != nil {
		return req, err
	}
	return req, nil
}

// ParsePackageRequest validates arguments carrying only package_name.
func ParsePackageRequest(raw json.RawMessage) (PackageRequest, error) {
	var req PackageRequest
	a, err := parseArgs(raw)
	if err != nil {
		return req, errEmptyPackageName()
	}
	req.PackageName, err = a.packageName()
	return req, err
}

// ParseApkFilesRequest validates getAppByApkFiles arguments.
func ParseApkFilesRequest(raw json.RawMessage) (ApkFilesRequest, error) {
	var req ApkFilesRequest
	a, err := parseArgs(raw)
	if err != nil {
		return req, err
	}
	v, ok := a["paths"]
	if !ok || isNull(v) {
		return req, errInvalidArgument()
	}
	if err := json.Unmarshal(v, &req.Paths); err != nil {
		return req, errInvalidArgument()
	}
	if req.IncludeAppIcon, err = a.flag("include_app_icon"); err != nil {
		return req, err
	}
	return req, nil
}
