package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_AllAttributes(t *testing.T) {
	src := `
legacy_omit_in_value_list = true
strict                    = true
quiet                     = false
implicit_omit             = true
select                    = "$.definitions[*].name"
db                        = "out.db"
modules                   = ["a.json", "sub/*.json"]
jobs                      = 4
`
	cfg, err := Parse(FileName, []byte(src))
	require.NoError(t, err)

	assert.Equal(t, Config{
		LegacyOmitInValueList: true,
		Strict:                true,
		ImplicitOmit:          true,
		Select:                "$.definitions[*].name",
		DB:                    "out.db",
		Modules:               []string{"a.json", "sub/*.json"},
		Jobs:                  4,
	}, cfg)
	assert.True(t, cfg.Sema().LegacyOmitInValueList)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(FileName, []byte(`unknown_attr = 1`))
	assert.Error(t, err)

	_, err = Parse(FileName, []byte(`strict = "yes please"`))
	assert.Error(t, err)

	_, err = Parse(FileName, []byte(`jobs = -1`))
	assert.ErrorContains(t, err, "jobs must not be negative")
}

func TestLoad_FromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("quiet = true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Quiet)
	assert.False(t, cfg.Strict)
}

func TestModuleFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"a.json", "sub/b.json", "sub/c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}

	cfg := Config{Modules: []string{"a.json", "sub/*.json"}}
	files, err := cfg.ModuleFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "sub", "b.json")}, files)
}
