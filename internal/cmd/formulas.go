package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"nickandperla.net/patterncalc/internal/style"
	"nickandperla.net/patterncalc/pkg/patterncalc"
)

var formulaCmd = &cobra.Command{
	Use:   "formula",
	Short: "Manage the formulas of pattern objects",
	Long: `Manage the formula attributes of pattern objects (points, arcs,
curves). These are the formulas checked before a variable is removed and
rewritten when one is renamed.`,
}

var formulaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List object formulas",
	Args:  cobra.NoArgs,
	RunE:  runFormulaList,
}

var formulaSetCmd = &cobra.Command{
	Use:   "set <object-id> <attribute> <formula>",
	Short: "Set an object formula",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseOwner(args[0])
		if err != nil {
			return err
		}
		return editFormulas(cmd, func(e *patterncalc.Engine) error {
			return e.SetField(patterncalc.Field{OwnerID: id, Attr: args[1], Formula: e.Translator().FromUser(args[2])})
		})
	},
}

var formulaRmCmd = &cobra.Command{
	Use:   "rm <object-id> <attribute>",
	Short: "Remove an object formula",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseOwner(args[0])
		if err != nil {
			return err
		}
		return editFormulas(cmd, func(e *patterncalc.Engine) error {
			return e.RemoveField(id, args[1])
		})
	},
}

var formulaRelabelCmd = &cobra.Command{
	Use:   "relabel <old-label> <new-label>",
	Short: "Rewrite derived names after a point was relabelled",
	Long: `Rewrite derived variable names after a point label changed, so
Line_A_B becomes Line_C_B when A is relabelled C.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(e *patterncalc.Engine) error {
			n := e.RenameLabel(args[0], args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "%d formula(s) updated\n", n)
			return nil
		})
	},
}

func init() {
	formulaCmd.AddCommand(formulaListCmd, formulaSetCmd, formulaRmCmd, formulaRelabelCmd)
	rootCmd.AddCommand(formulaCmd)
}

// editFormulas runs fn under the exclusive lock. Object formulas are
// written field by field, so the variable tables are left as stored.
func editFormulas(cmd *cobra.Command, fn func(e *patterncalc.Engine) error) error {
	e, release, err := openEngine(cmd, true)
	if err != nil {
		return err
	}
	defer release()
	return fn(e)
}

func runFormulaList(cmd *cobra.Command, args []string) error {
	e, release, err := openEngine(cmd, false)
	if err != nil {
		return err
	}
	defer release()

	tbl := style.NewTable(
		style.Column{Name: "Object", Align: style.AlignRight},
		style.Column{Name: "Attribute"},
		style.Column{Name: "Formula"},
		style.Column{Name: "Value", Align: style.AlignRight},
	)
	for _, f := range e.Corpus() {
		value := style.Error.Render("error")
		if v, err := e.Evaluate(f.Formula); err == nil {
			value = formatValue(e, v)
		}
		tbl.AddRow(strconv.FormatUint(uint64(f.OwnerID), 10), f.Attr, e.Translator().ToUser(f.Formula), value)
	}
	if tbl.Len() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), style.Dim.Render("no formulas"))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), tbl.Render())
	return nil
}
