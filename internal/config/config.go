package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/agentic-research/tmplcheck/internal/sema"
)

// FileName is the project file looked up in the working directory.
const FileName = "tmplcheck.hcl"

// Config is the decoded project file:
//
//	legacy_omit_in_value_list = false
//	strict                    = true
//	implicit_omit             = false
//	select                    = "$.definitions[?(@.kind == 'template')].name"
//	db                        = "diagnostics.db"
//	modules                   = ["testcases/*.json"]
type Config struct {
	// LegacyOmitInValueList lets value list elements inherit omit and
	// ifpresent permission from the list.
	LegacyOmitInValueList bool `hcl:"legacy_omit_in_value_list,optional"`
	// Strict turns warnings into errors.
	Strict bool `hcl:"strict,optional"`
	// Quiet drops warnings.
	Quiet bool `hcl:"quiet,optional"`
	// ImplicitOmit applies `optional "implicit omit"' to every definition.
	ImplicitOmit bool `hcl:"implicit_omit,optional"`
	// Select is a JSONPath evaluated against each module description. It
	// must yield definition names (or objects with a name); only those
	// definitions are checked.
	Select string `hcl:"select,optional"`
	// DB is an SQLite file diagnostics are recorded in.
	DB string `hcl:"db,optional"`
	// Modules are glob patterns of module descriptions to check when none
	// are given on the command line.
	Modules []string `hcl:"modules,optional"`
	// Jobs bounds the number of modules checked at once; 0 means one per CPU.
	Jobs int `hcl:"jobs,optional"`
}

// Default returns the configuration used without a project file.
func Default() Config {
	return Config{}
}

// Load reads the project file at path. A missing file yields Default.
func Load(path string) (Config, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(path, src)
}

// Parse decodes src. filename is used in error messages and must end in
// .hcl or .json to select the syntax.
func Parse(filename string, src []byte) (Config, error) {
	cfg := Default()
	if err := hclsimple.Decode(filepath.Base(filename), src, nil, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Jobs < 0 {
		return Config{}, fmt.Errorf("decode config: jobs must not be negative, got %d", cfg.Jobs)
	}
	return cfg, nil
}

// Sema returns the checker configuration.
func (c Config) Sema() sema.Config {
	return sema.Config{LegacyOmitInValueList: c.LegacyOmitInValueList}
}

// ModuleFiles expands the Modules patterns relative to dir.
func (c Config) ModuleFiles(dir string) ([]string, error) {
	var out []string
	for _, pat := range c.Modules {
		if !filepath.IsAbs(pat) {
			pat = filepath.Join(dir, pat)
		}
		matches, err := filepath.Glob(pat)
		if err != nil {
			return nil, fmt.Errorf("module pattern %q: %w", pat, err)
		}
		out = append(out, matches...)
	}
	return out, nil
}
