package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nickandperla.net/patterncalc/internal/eval"
)

var evalCanonical bool

var evalCmd = &cobra.Command{
	Use:   "eval <formula>",
	Short: "Evaluate a formula against the pattern's variables",
	Long: `Evaluate a formula against every variable table of the pattern.

The formula is read in the configured locale unless --canonical is given.

Examples:
  patterncalc eval "@waist/4 + #ease"
  patterncalc eval --canonical "max(1.5; Line_A_B)"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().BoolVar(&evalCanonical, "canonical", false, "Read the formula in canonical form")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	e, release, err := openEngine(cmd, false)
	if err != nil {
		return err
	}
	defer release()

	text := strings.Join(args, " ")
	var v float64
	if evalCanonical {
		v, err = e.Evaluate(text)
	} else {
		v, _, err = e.EvaluateUser(text)
	}
	if err != nil {
		return describe(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatValue(e, v))
	return nil
}

// describe adds the remedy for each kind of formula failure.
func describe(err error) error {
	switch {
	case errors.Is(err, eval.ErrInvalidResult):
		return fmt.Errorf("%w (check for division by zero or out of range values)", err)
	case errors.Is(err, eval.ErrUnassignableToken):
		return fmt.Errorf("%w (see 'patterncalc inc list' and 'patterncalc m list')", err)
	}
	return err
}
