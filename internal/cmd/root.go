// Package cmd implements the patterncalc command tree.
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"nickandperla.net/patterncalc/internal/config"
	"nickandperla.net/patterncalc/internal/container"
	"nickandperla.net/patterncalc/internal/logging"
	"nickandperla.net/patterncalc/internal/style"
	"nickandperla.net/patterncalc/pkg/patterncalc"
)

// Global flags
var (
	cfgFile   string
	dbPath    string
	pedantic  bool
	unitName  string
	localeTag string
	logLevel  string
)

// cfg is resolved from the config file and flags before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "patterncalc",
	Short: "Evaluate and manage pattern formulas",
	Long: `patterncalc evaluates measurement formulas and manages the variable
tables of a pattern document: measurements, increments, preview
calculations and the formulas of pattern objects that read them.

Settings are read from patterncalc.toml in the working directory; flags
override them.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: resolveConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFile, "Config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Pattern database path (overrides store.path)")
	rootCmd.PersistentFlags().BoolVar(&pedantic, "pedantic", false, "Fail on warning() calls and degenerate geometry")
	rootCmd.PersistentFlags().StringVar(&unitName, "unit", "", "Pattern unit of a new document: mm, cm or inch")
	rootCmd.PersistentFlags().StringVar(&localeTag, "locale", "", "Language tag used to read and show formulas")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		style.Fprintf(rootCmd.ErrOrStderr(), style.ErrorPrefix, "%v", err)
		return 1
	}
	return 0
}

func resolveConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		c.Store.Path = dbPath
	}
	if flags.Changed("pedantic") {
		c.Eval.Pedantic = pedantic
	}
	if flags.Changed("unit") {
		c.Pattern.Unit = unitName
	}
	if flags.Changed("locale") {
		c.Locale.Tag = localeTag
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// openEngine loads the document under a file lock, exclusive when the
// command writes. Callers Save explicitly before calling the returned
// release func.
func openEngine(cmd *cobra.Command, write bool) (*patterncalc.Engine, func(), error) {
	lock, err := lockDocument(cmd.Context(), cfg.Store.Path, write)
	if err != nil {
		return nil, nil, err
	}
	log := logging.New(cfg.Log, cmd.ErrOrStderr())
	e, err := patterncalc.New(patterncalc.WithConfig(cfg), patterncalc.WithLogger(log))
	if err != nil {
		lock.Unlock()
		return nil, nil, err
	}
	return e, func() {
		e.Close()
		lock.Unlock()
	}, nil
}

// save writes the document and reports formulas that no longer evaluate.
func save(cmd *cobra.Command, e *patterncalc.Engine, failures []container.Failure) error {
	for _, f := range failures {
		style.Fprintf(cmd.ErrOrStderr(), style.WarningPrefix, "%s: %v", f.Name, f.Err)
	}
	return e.Save()
}

// formatValue renders v in the user's locale.
func formatValue(e *patterncalc.Engine, v float64) string {
	return e.Translator().ToUser(strconv.FormatFloat(v, 'f', -1, 64))
}

func parseOwner(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid object id %q", s)
	}
	return uint32(id), nil
}
