package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nickandperla.net/patterncalc/internal/style"
)

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Re-evaluate every table formula and report failures",
	Args:  cobra.NoArgs,
	RunE:  runRecalc,
}

func init() {
	rootCmd.AddCommand(recalcCmd)
}

func runRecalc(cmd *cobra.Command, args []string) error {
	e, release, err := openEngine(cmd, false)
	if err != nil {
		return err
	}
	defer release()

	failures := e.RecalculateAll()
	out := cmd.OutOrStdout()
	if len(failures) == 0 {
		style.Fprintf(out, style.SuccessPrefix, "%d variable(s) evaluated", e.Container().Len())
		return nil
	}
	for _, f := range failures {
		style.Fprintf(out, style.ErrorPrefix, "%s: %v", f.Name, f.Err)
	}
	return fmt.Errorf("%d formula(s) could not be evaluated", len(failures))
}
