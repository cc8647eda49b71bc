package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"runtime"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/tmplcheck/internal/config"
	"github.com/agentic-research/tmplcheck/internal/diag"
	"github.com/agentic-research/tmplcheck/internal/ingest"
	"github.com/agentic-research/tmplcheck/internal/sema"
	"github.com/agentic-research/tmplcheck/internal/store"
)

// ErrCheckFailed is returned when a check reports errors.
var ErrCheckFailed = errors.New("template check failed")

var checkCmd = &cobra.Command{
	Use:   "check [module.json|dir]...",
	Short: "Check the templates of TTCN-3 module descriptions",
	Long: `Check loads JSON module descriptions, resolves every template against its
type and reports each violation. Directories are searched for .json files.
Without arguments the modules listed in the project file are checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		paths := args
		if len(paths) == 0 {
			if paths, err = cfg.ModuleFiles(filepath.Dir(configPath)); err != nil {
				return err
			}
			if len(paths) == 0 {
				return errors.New("no module descriptions given")
			}
		}
		return runCheck(cmd.OutOrStdout(), cfg, paths)
	},
}

func init() {
	addCheckFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

// checked is the outcome of checking one module description.
type checked struct {
	unit *ingest.Unit
	col  *diag.Collector
}

// runCheck checks every module under paths, prints the diagnostics in
// argument order and returns ErrCheckFailed if any error was reported.
func runCheck(w io.Writer, cfg config.Config, paths []string) error {
	engine := ingest.NewEngine(osfs.New(""), ingest.Options{ImplicitOmit: cfg.ImplicitOmit})
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([][]checked, len(paths))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, p := range paths {
		g.Go(func() error {
			units, err := engine.Ingest(fsPath(p))
			if err != nil {
				return err
			}
			for _, u := range units {
				col, err := checkUnit(u, cfg)
				if err != nil {
					return err
				}
				results[i] = append(results[i], checked{unit: u, col: col})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if cfg.DB != "" {
		if err := record(cfg.DB, results); err != nil {
			return err
		}
	}

	errs := 0
	for _, rs := range results {
		for _, r := range rs {
			if _, err := io.WriteString(w, r.col.FormatAll()); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s (%s): %s\n", r.unit.Module.Name, r.unit.Path, r.col.Summary())
			errs += r.col.ErrorCount()
		}
	}
	if errs > 0 {
		return fmt.Errorf("%w: %d error(s)", ErrCheckFailed, errs)
	}
	return nil
}

// checkUnit checks the selected definitions of u with a fresh analysis.
func checkUnit(u *ingest.Unit, cfg config.Config) (*diag.Collector, error) {
	defs, err := u.Select(cfg.Select)
	if err != nil {
		return nil, err
	}
	col := diag.NewCollector(cfg.Strict, cfg.Quiet)
	c := sema.NewChecker(u.Module, nil, col, cfg.Sema())
	for _, d := range defs {
		c.CheckDefinition(d)
	}
	log.Printf("check: %s: %d definitions, %s", u.Path, len(defs), col.Summary())
	return col, nil
}

func record(path string, results [][]checked) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	for _, rs := range results {
		for _, r := range rs {
			run := st.Begin(r.unit.Module.Name, r.unit.Path)
			for _, d := range r.col.Diagnostics() {
				run.Report(d)
			}
			if _, err := run.Finish(); err != nil {
				return fmt.Errorf("record %s: %w", r.unit.Path, err)
			}
		}
	}
	return nil
}

// fsPath maps p to a path the chrooted OS filesystem accepts: paths that
// leave the working directory are made absolute.
func fsPath(p string) string {
	if filepath.IsLocal(p) {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
