package profile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeclass/engine/api"
	"github.com/codeclass/engine/internal/profile"
)

func TestDefaultTableIsClosed(t *testing.T) {
	table := profile.Default()
	require.Len(t, table.Languages(), 4)

	_, err := table.Get("RUST")
	require.Error(t, err)
}

func TestCompiledVsInterpretedShapes(t *testing.T) {
	table := profile.Default()

	java, err := table.Get(api.LangJava)
	require.NoError(t, err)
	require.False(t, java.Interpreted())
	require.NotNil(t, java.CompileCmd)
	require.NotNil(t, java.CompiledFilename)

	cpp, err := table.Get(api.LangCpp)
	require.NoError(t, err)
	require.False(t, cpp.Interpreted())

	python, err := table.Get(api.LangPython)
	require.NoError(t, err)
	require.True(t, python.Interpreted())
	require.Nil(t, python.CompileCmd)

	js, err := table.Get(api.LangJavaScript)
	require.NoError(t, err)
	require.True(t, js.Interpreted())
}

func TestMemoryCeilingsAreSane(t *testing.T) {
	table := profile.Default()
	for _, lang := range table.Languages() {
		p, err := table.Get(lang)
		require.NoError(t, err)
		require.Positive(t, p.DefaultMemLimitKiB)
		require.GreaterOrEqual(t, p.HardMemLimitKiB, p.DefaultMemLimitKiB)
		require.Positive(t, p.TimeMultiplier)
	}
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.toml")
	content := `
[[languages]]
id = "PYTHON"
exec_cmd = "python3.12 -B main.py"
mem_limit_kib = 65536

[[languages]]
id = "JAVA"
time_multiplier = 3.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := profile.LoadTOML(path)
	require.NoError(t, err)

	python, err := table.Get(api.LangPython)
	require.NoError(t, err)
	require.Equal(t, "python3.12 -B main.py", python.ExecCmd)
	require.Equal(t, int64(65536), python.DefaultMemLimitKiB)
	// untouched fields keep their defaults
	require.Equal(t, "main.py", python.SourceFilename)

	java, err := table.Get(api.LangJava)
	require.NoError(t, err)
	require.Equal(t, 3.0, java.TimeMultiplier)
}

func TestLoadTOMLRejectsUnknownLanguage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[languages]]\nid = \"GO\"\n"), 0644))

	_, err := profile.LoadTOML(path)
	require.Error(t, err)
}
