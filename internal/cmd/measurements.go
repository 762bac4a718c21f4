package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"nickandperla.net/patterncalc/internal/style"
	"nickandperla.net/patterncalc/internal/variable"
	"nickandperla.net/patterncalc/pkg/patterncalc"
)

var measurementFormula string

var measurementCmd = &cobra.Command{
	Use:     "m",
	Aliases: []string{"measurements"},
	Short:   "Manage body measurements",
	Long: `Manage the measurement table. A measurement has a base value and may
instead be computed from a formula over other measurements.`,
}

var measurementListCmd = &cobra.Command{
	Use:   "list",
	Short: "List measurements",
	Args:  cobra.NoArgs,
	RunE:  runMeasurementList,
}

var measurementAddCmd = &cobra.Command{
	Use:   "add <name> <value>",
	Short: "Add a measurement",
	Args:  cobra.ExactArgs(2),
	RunE:  runMeasurementAdd,
}

var measurementSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Change the base value of a measurement",
	Args:  cobra.ExactArgs(2),
	RunE:  runMeasurementSet,
}

var measurementFormulaCmd = &cobra.Command{
	Use:   "formula <name> [formula]",
	Short: "Set or clear the formula of a measurement",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(e *patterncalc.Engine) error {
			formula := ""
			if len(args) == 2 {
				formula = e.Translator().FromUser(args[1])
			}
			if _, err := e.Container().Variable(args[0], variable.Measurement); err != nil {
				return err
			}
			return e.SetFormula(args[0], formula)
		})
	},
}

var measurementRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a measurement that no formula uses",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var measurementRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a measurement and every reference to it",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

func init() {
	measurementAddCmd.Flags().StringVar(&measurementFormula, "formula", "", "Compute the measurement from this formula")

	measurementCmd.AddCommand(measurementListCmd, measurementAddCmd, measurementSetCmd,
		measurementFormulaCmd, measurementRmCmd, measurementRenameCmd)
	rootCmd.AddCommand(measurementCmd)
}

func runMeasurementList(cmd *cobra.Command, args []string) error {
	e, release, err := openEngine(cmd, false)
	if err != nil {
		return err
	}
	defer release()

	tbl := style.NewTable(
		style.Column{Name: "Name"},
		style.Column{Name: "Base", Align: style.AlignRight},
		style.Column{Name: "Formula"},
		style.Column{Name: "Value", Align: style.AlignRight},
	)
	for _, v := range e.Container().Measurements() {
		m := v.Measurement()
		tbl.AddRow(v.Name(), formatValue(e, m.Base), e.Translator().ToUser(m.Formula), valueCell(e, v))
	}
	if tbl.Len() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), style.Dim.Render("no measurements"))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), tbl.Render())
	return nil
}

// parseValue reads a number typed in the user's locale.
func parseValue(e *patterncalc.Engine, text string) (float64, error) {
	v, err := strconv.ParseFloat(e.Translator().FromUser(text), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", text)
	}
	return v, nil
}

func runMeasurementAdd(cmd *cobra.Command, args []string) error {
	return mutate(cmd, func(e *patterncalc.Engine) error {
		base, err := parseValue(e, args[1])
		if err != nil {
			return err
		}
		formula := ""
		if measurementFormula != "" {
			formula = e.Translator().FromUser(measurementFormula)
		}
		if err := e.AddMeasurement(args[0], base, formula); err != nil {
			return err
		}
		style.Fprintf(cmd.OutOrStdout(), style.SuccessPrefix, "added %s", args[0])
		return nil
	})
}

func runMeasurementSet(cmd *cobra.Command, args []string) error {
	return mutate(cmd, func(e *patterncalc.Engine) error {
		base, err := parseValue(e, args[1])
		if err != nil {
			return err
		}
		return e.SetMeasurementBase(args[0], base)
	})
}
