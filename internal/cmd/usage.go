package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nickandperla.net/patterncalc/internal/style"
)

var usageCmd = &cobra.Command{
	Use:   "usage <name>",
	Short: "Show the formulas that read a variable",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
	e, release, err := openEngine(cmd, false)
	if err != nil {
		return err
	}
	defer release()

	name := args[0]
	users := e.Users(name)
	out := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintf(out, "%s is not used\n", name)
		return nil
	}
	fmt.Fprintf(out, "%s is used by %d formula(s):\n", name, len(users))
	for _, f := range users {
		owner := f.Attr
		if f.OwnerID != 0 {
			owner = fmt.Sprintf("object %d %s", f.OwnerID, f.Attr)
		}
		fmt.Fprintf(out, "  %s  %s\n", style.Bold.Render(owner), e.Translator().ToUser(f.Formula))
	}
	return nil
}
