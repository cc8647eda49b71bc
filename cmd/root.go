package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/tmplcheck/internal/config"
)

// version is reported by the MCP server and --version.
const version = "0.1.0"

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.FileName, "Path to project file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log loading and storage steps to stderr")
}

var rootCmd = &cobra.Command{
	Use:           "tmplcheck",
	Short:         "tmplcheck: TTCN-3 template resolution and validation",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !verbose {
			log.SetOutput(io.Discard)
		}
	},
}

// loadConfig reads the project file and applies the flags the user set
// explicitly on cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("quiet") {
		cfg.Quiet, _ = flags.GetBool("quiet")
	}
	if flags.Changed("legacy-omit") {
		cfg.LegacyOmitInValueList, _ = flags.GetBool("legacy-omit")
	}
	if flags.Changed("implicit-omit") {
		cfg.ImplicitOmit, _ = flags.GetBool("implicit-omit")
	}
	if flags.Changed("select") {
		cfg.Select, _ = flags.GetString("select")
	}
	if flags.Changed("db") {
		cfg.DB, _ = flags.GetString("db")
	}
	if flags.Changed("jobs") {
		cfg.Jobs, _ = flags.GetInt("jobs")
	}
	return cfg, nil
}

// addCheckFlags registers the flags that override project file settings.
func addCheckFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("strict", false, "Treat warnings as errors")
	f.Bool("quiet", false, "Suppress warnings")
	f.Bool("legacy-omit", false, "Let value list elements inherit omit and ifpresent permission")
	f.Bool("implicit-omit", false, "Apply implicit omit to every definition")
	f.String("select", "", "JSONPath selecting the definitions to check")
	f.String("db", "", "Record diagnostics in this SQLite database")
	f.IntP("jobs", "j", 0, "Modules checked concurrently (0: one per CPU)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
