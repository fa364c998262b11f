package desktop

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Entry is the [Desktop Entry] group of a .desktop file.
type Entry struct {
	Type        string
	Name        string
	Exec        string
	Icon        string
	Path        string
	NoDisplay   bool
	Hidden      bool
	Categories  []string
	VersionName string
	VersionCode int64
}

// ParseFile reads and parses a desktop entry file.
func ParseFile(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	e, err := Parse(data)
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// Parse parses desktop entry data. Only unlocalized keys of the
// [Desktop Entry] group are read.
func Parse(data []byte) (Entry, error) {
	var e Entry
	inDesktopEntry := false
	sawGroup := false

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		if line[0] == '[' && line[len(line)-1] == ']' {
			inDesktopEntry = line == "[Desktop Entry]"
			sawGroup = sawGroup || inDesktopEntry
			continue
		}

		if !inDesktopEntry {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if strings.Contains(key, "[") {
			continue
		}

		switch key {
		case "Type":
			e.Type = value
		case "Name":
			e.Name = unescape(value)
		case "Exec":
			// Exec keeps its escapes; splitExec interprets quoting.
			e.Exec = value
		case "Icon":
			e.Icon = unescape(value)
		case "Path":
			e.Path = unescape(value)
		case "NoDisplay":
			e.NoDisplay = value == "true"
		case "Hidden":
			e.Hidden = value == "true"
		case "Categories":
			for _, c := range strings.Split(value, ";") {
				if c = strings.TrimSpace(c); c != "" {
					e.Categories = append(e.Categories, c)
				}
			}
		case "X-AppImage-Version", "X-AppVersion":
			if e.VersionName == "" {
				e.VersionName = unescape(value)
			}
		case "X-AppVersionCode":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				e.VersionCode = n
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Entry{}, err
	}
	if !sawGroup {
		return Entry{}, fmt.Errorf("missing [Desktop Entry] group")
	}
	return e, nil
}

// IsApplication reports whether the entry describes an application.
func (e Entry) IsApplication() bool {
	return e.Type == "Application"
}

// Launchable reports whether the entry has an entry point shown to users.
func (e Entry) Launchable() bool {
	return e.IsApplication() && e.Exec != "" && !e.NoDisplay
}

// unescape resolves the string escapes of the desktop entry format.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 's':
			b.WriteByte(' ')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
