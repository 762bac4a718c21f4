package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"nickandperla.net/patterncalc/internal/style"
	"nickandperla.net/patterncalc/internal/variable"
	"nickandperla.net/patterncalc/pkg/patterncalc"
)

// Increment command flags
var (
	incDescription string
	incPreview     bool
)

var incCmd = &cobra.Command{
	Use:     "inc",
	Aliases: []string{"increments"},
	Short:   "Manage increments and preview calculations",
	Long: `Manage the increment table and, with --preview, the preview
calculation table.

Names are unique across every table. A name in use by any formula cannot
be removed.`,
}

var incListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rows of the table",
	Args:  cobra.NoArgs,
	RunE:  runIncList,
}

var incAddCmd = &cobra.Command{
	Use:   "add [name] <formula>",
	Short: "Append an increment",
	Long: `Append an increment. Without a name one is generated
(@custom_increment_1, @custom_increment_2, ...).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runIncAdd,
}

var incSepCmd = &cobra.Command{
	Use:   "sep [name]",
	Short: "Append a separator row",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIncSep,
}

var incSetCmd = &cobra.Command{
	Use:   "set <name> <formula>",
	Short: "Replace the formula of an increment",
	Args:  cobra.ExactArgs(2),
	RunE:  runIncSet,
}

var incDescCmd = &cobra.Command{
	Use:   "desc <name> <description>",
	Short: "Replace the description of a row",
	Args:  cobra.ExactArgs(2),
	RunE:  runIncDesc,
}

var incRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a row that no formula uses",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var incRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a row and every reference to it",
	Long: `Rename a row and rewrite every formula that reads it.

When the new name is taken a suffix (_2, _3, ...) is added instead of
failing.`,
	Args: cobra.ExactArgs(2),
	RunE: runRename,
}

var incMvCmd = &cobra.Command{
	Use:   "mv <name> <position>",
	Short: "Move a row to a 1-based position",
	Args:  cobra.ExactArgs(2),
	RunE:  runIncMv,
}

var incUpCmd = &cobra.Command{
	Use:   "up <name>",
	Short: "Move a row up",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(e *patterncalc.Engine) error {
			return e.Container().MoveUp(args[0])
		})
	},
}

var incDownCmd = &cobra.Command{
	Use:   "down <name>",
	Short: "Move a row down",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(e *patterncalc.Engine) error {
			return e.Container().MoveDown(args[0])
		})
	},
}

func init() {
	incCmd.PersistentFlags().BoolVar(&incPreview, "preview", false, "Use the preview calculation table")
	incAddCmd.Flags().StringVar(&incDescription, "desc", "", "Description")
	incSepCmd.Flags().StringVar(&incDescription, "desc", "", "Description")

	incCmd.AddCommand(incListCmd, incAddCmd, incSepCmd, incSetCmd, incDescCmd,
		incRmCmd, incRenameCmd, incMvCmd, incUpCmd, incDownCmd)
	rootCmd.AddCommand(incCmd)
}

// mutate runs fn on the document under an exclusive lock and saves it.
func mutate(cmd *cobra.Command, fn func(e *patterncalc.Engine) error) error {
	e, release, err := openEngine(cmd, true)
	if err != nil {
		return err
	}
	defer release()
	if err := fn(e); err != nil {
		return err
	}
	return save(cmd, e, e.Recalculate())
}

func runIncList(cmd *cobra.Command, args []string) error {
	e, release, err := openEngine(cmd, false)
	if err != nil {
		return err
	}
	defer release()

	tbl := style.NewTable(
		style.Column{Name: "#", Align: style.AlignRight},
		style.Column{Name: "Name"},
		style.Column{Name: "Formula"},
		style.Column{Name: "Value", Align: style.AlignRight},
		style.Column{Name: "Description"},
	)
	for _, v := range e.Container().Increments(incPreview) {
		inc := v.Increment()
		pos := strconv.Itoa(inc.Index + 1)
		if v.Kind() == variable.Separator {
			tbl.AddDimRow(pos, v.Name(), "", "", inc.Description)
			continue
		}
		tbl.AddRow(pos, v.Name(), e.Translator().ToUser(inc.Formula), valueCell(e, v), inc.Description)
	}
	if tbl.Len() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), style.Dim.Render("no rows"))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), tbl.Render())
	return nil
}

func valueCell(e *patterncalc.Engine, v *variable.Variable) string {
	if !v.IsEvaluable() {
		return style.Error.Render("error")
	}
	s := formatValue(e, v.Value())
	if inc := v.Increment(); inc != nil && inc.SpecialUnits {
		s += "°"
	}
	return s
}

func runIncAdd(cmd *cobra.Command, args []string) error {
	name, text := "", args[0]
	if len(args) == 2 {
		name, text = args[0], args[1]
	}
	return mutate(cmd, func(e *patterncalc.Engine) error {
		stored, err := e.AddIncrement(name, e.Translator().FromUser(text), incDescription, incPreview)
		if err != nil {
			return err
		}
		style.Fprintf(cmd.OutOrStdout(), style.SuccessPrefix, "added %s", stored)
		return nil
	})
}

func runIncSep(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	return mutate(cmd, func(e *patterncalc.Engine) error {
		stored, err := e.AddSeparator(name, incDescription, incPreview)
		if err != nil {
			return err
		}
		style.Fprintf(cmd.OutOrStdout(), style.SuccessPrefix, "added %s", stored)
		return nil
	})
}

func runIncSet(cmd *cobra.Command, args []string) error {
	return mutate(cmd, func(e *patterncalc.Engine) error {
		if _, err := e.Container().Variable(args[0], variable.Increment); err != nil {
			return err
		}
		return e.SetFormula(args[0], e.Translator().FromUser(args[1]))
	})
}

func runIncDesc(cmd *cobra.Command, args []string) error {
	return mutate(cmd, func(e *patterncalc.Engine) error {
		return e.Container().SetDescription(args[0], args[1])
	})
}

func runIncMv(cmd *cobra.Command, args []string) error {
	pos, err := strconv.Atoi(args[1])
	if err != nil || pos < 1 {
		return fmt.Errorf("invalid position %q", args[1])
	}
	return mutate(cmd, func(e *patterncalc.Engine) error {
		return e.Container().Move(args[0], pos-1)
	})
}

// runRemove is shared by inc rm and m rm.
func runRemove(cmd *cobra.Command, args []string) error {
	return mutate(cmd, func(e *patterncalc.Engine) error {
		if err := e.Remove(args[0]); err != nil {
			return err
		}
		style.Fprintf(cmd.OutOrStdout(), style.SuccessPrefix, "removed %s", args[0])
		return nil
	})
}

// runRename is shared by inc rename and m rename.
func runRename(cmd *cobra.Command, args []string) error {
	return mutate(cmd, func(e *patterncalc.Engine) error {
		res, err := e.Rename(args[0], args[1])
		if err != nil {
			return err
		}
		if !res.Literal {
			style.Fprintf(cmd.OutOrStdout(), style.WarningPrefix, "%s is taken, renamed %s to %s", args[1], args[0], res.Name)
		} else {
			style.Fprintf(cmd.OutOrStdout(), style.SuccessPrefix, "renamed %s to %s", args[0], res.Name)
		}
		if res.Rewritten > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  %d formula(s) updated\n", res.Rewritten)
		}
		return nil
	})
}
