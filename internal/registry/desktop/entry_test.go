package desktop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const editorEntry = `# sample
[Desktop Entry]
Type=Application
Name=Text Editor
Name[fr]=Éditeur de texte
Exec=editor --new-window %U
Icon=org.example.Editor
Categories=Utility;TextEditor;Office;
X-AppImage-Version=3.2.1
X-AppVersionCode=321
Path=/opt/editor

[Desktop Action new-window]
Name=New Window
Exec=editor --other
`

func TestParse(t *testing.T) {
	e, err := Parse([]byte(editorEntry))
	require.NoError(t, err)

	assert.Equal(t, "Application", e.Type)
	assert.Equal(t, "Text Editor", e.Name)
	assert.Equal(t, "editor --new-window %U", e.Exec)
	assert.Equal(t, "org.example.Editor", e.Icon)
	assert.Equal(t, "/opt/editor", e.Path)
	assert.Equal(t, []string{"Utility", "TextEditor", "Office"}, e.Categories)
	assert.Equal(t, "3.2.1", e.VersionName)
	assert.Equal(t, int64(321), e.VersionCode)
	assert.False(t, e.NoDisplay)
	assert.False(t, e.Hidden)
	assert.True(t, e.Launchable())
}

func TestParse_Flags(t *testing.T) {
	e, err := Parse([]byte("[Desktop Entry]\nType=Application\nName=Daemon\nExec=daemon\nNoDisplay=true\nHidden=true\n"))
	require.NoError(t, err)
	assert.True(t, e.NoDisplay)
	assert.True(t, e.Hidden)
	assert.False(t, e.Launchable())
}

func TestParse_NotApplication(t *testing.T) {
	e, err := Parse([]byte("[Desktop Entry]\nType=Link\nName=Docs\nURL=https://example.org\n"))
	require.NoError(t, err)
	assert.False(t, e.IsApplication())
	assert.False(t, e.Launchable())
}

func TestParse_MissingGroup(t *testing.T) {
	_, err := Parse([]byte("Name=Nothing\n"))
	assert.Error(t, err)
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "a b\tc\\d", unescape(`a\sb\tc\\d`))
	assert.Equal(t, "plain", unescape("plain"))
	assert.Equal(t, `\q`, unescape(`\q`))
}
