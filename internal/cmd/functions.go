package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nickandperla.net/patterncalc/internal/eval"
	"nickandperla.net/patterncalc/internal/stdlib"
)

var functionsNames bool

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "Show the formula language reference",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if functionsNames {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(eval.Functions(), "\n"))
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), stdlib.Functions)
		return nil
	},
}

func init() {
	functionsCmd.Flags().BoolVar(&functionsNames, "names", false, "List only the function names")
	rootCmd.AddCommand(functionsCmd)
}
