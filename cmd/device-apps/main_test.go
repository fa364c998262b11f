package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureDoc = `{
	"packages": [
		{"package_name": "org.example.Notes", "label": "Notes", "version_name": "2.0", "launchable": true},
		{"package_name": "org.host.Settings", "label": "Settings", "flags": 1, "launchable": true, "category": 7}
	]
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtureDoc), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DEVICE_APPS_LOG_LEVEL", "error")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	fixture := writeFixture(t)

	out, err := execute(t, "", "list", "--fixture", fixture)
	require.NoError(t, err)
	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "org.example.Notes", records[0]["package_name"])

	out, err = execute(t, "", "list", "--system", "--fixture", fixture)
	require.NoError(t, err)
	var all []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	require.Len(t, all, 2)
	assert.Equal(t, float64(7), all[1]["category"])
	assert.Equal(t, true, all[1]["system_app"])
}

func TestGetCommand(t *testing.T) {
	fixture := writeFixture(t)

	out, err := execute(t, "", "get", "org.example.Notes", "--fixture", fixture)
	require.NoError(t, err)
	var record map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.Equal(t, "2.0", record["version_name"])

	_, err = execute(t, "", "get", "org.example.Missing", "--fixture", fixture)
	assert.ErrorContains(t, err, "not installed")
}

func TestServeIsDefault(t *testing.T) {
	fixture := writeFixture(t)
	stdin := `{"jsonrpc":"2.0","id":1,"method":"isAppInstalled","params":{"package_name":"org.host.Settings"}}` + "\n"

	for _, args := range [][]string{{"--fixture", fixture}, {"serve", "--fixture", fixture}} {
		out, err := execute(t, stdin, args...)
		require.NoError(t, err)
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":true}`, out)
	}
}

func TestBadFixture(t *testing.T) {
	_, err := execute(t, "", "list", "--fixture", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "loading fixture")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "device-apps dev")
	assert.Contains(t, out, "Git commit: unknown")
}

func TestVersionString(t *testing.T) {
	defer func(v, c string) { Version, GitCommit = v, c }(Version, GitCommit)

	Version, GitCommit = "1.2.0", "abc123"
	assert.Equal(t, "1.2.0+abc123", versionString())

	Version, GitCommit = "1.2.0-abc123", "abc123"
	assert.Equal(t, "1.2.0-abc123", versionString())

	Version, GitCommit = "", "unknown"
	assert.Equal(t, "dev", versionString())
}
