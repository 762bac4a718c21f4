package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nickandperla.net/patterncalc/internal/store"
	"nickandperla.net/patterncalc/internal/style"
	"nickandperla.net/patterncalc/internal/variable"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the document's schema, namespace, unit and table sizes",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	e, release, err := openEngine(cmd, false)
	if err != nil {
		return err
	}
	defer release()

	tbl := style.NewTable(style.Column{Name: "Key"}, style.Column{Name: "Value"})
	for _, key := range []string{store.KeySchemaVersion, store.KeyNamespace, store.KeyUnit} {
		v, err := e.Metadata(key)
		if err != nil {
			return err
		}
		if v == "" {
			v = style.Dim.Render("(unsaved)")
		}
		tbl.AddRow(key, v)
	}
	c := e.Container()
	tbl.AddRow("measurements", fmt.Sprint(len(c.Measurements())))
	tbl.AddRow("increments", fmt.Sprint(len(c.Variables(variable.Increment))))
	tbl.AddRow("formulas", fmt.Sprint(len(e.Corpus())))
	fmt.Fprint(cmd.OutOrStdout(), tbl.Render())
	return nil
}
