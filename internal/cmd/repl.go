package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nickandperla.net/patterncalc/internal/scanner"
	"nickandperla.net/patterncalc/internal/style"
	"nickandperla.net/patterncalc/internal/variable"
	"nickandperla.net/patterncalc/pkg/patterncalc"
)

const replHelp = `Start an interactive session on the pattern document.

  <formula>          evaluate a formula
  name = <formula>   define or update a preview calculation
  :vars              list variables and their values
  :save              write the document
  :help              show this help
  :q                 quit (Ctrl+D also works)

The document is held under an exclusive lock for the whole session and
written on exit.`

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Evaluate formulas interactively",
	Long:  replHelp,
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w, "patterncalc REPL (:help for commands, Ctrl+D to exit)")
}

func runREPL(cmd *cobra.Command, args []string) error {
	e, release, err := openEngine(cmd, true)
	if err != nil {
		return err
	}
	defer release()

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		err = runRawREPL(e, f)
	} else {
		runBasicREPL(e, cmd.InOrStdin(), cmd.OutOrStdout())
	}
	if err != nil {
		return err
	}
	return e.Save()
}

// runBasicREPL handles non-TTY input (piped input)
func runBasicREPL(e *patterncalc.Engine, in io.Reader, out io.Writer) {
	printBanner(out)
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, ">>> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return
		}
		if quit := handleLine(e, sc.Text(), out); quit {
			return
		}
	}
}

// runRawREPL gives a TTY line editing and history.
func runRawREPL(e *patterncalc.Engine, f *os.File) error {
	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		runBasicREPL(e, f, os.Stdout)
		return nil
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{f, os.Stdout}, ">>> ")
	printBanner(t)
	for {
		line, err := t.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if quit := handleLine(e, line, t); quit {
			return nil
		}
	}
}

// handleLine runs one REPL input and reports whether the session ends.
func handleLine(e *patterncalc.Engine, line string, out io.Writer) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return false
	case ":q", ":quit":
		return true
	case ":help":
		fmt.Fprintln(out, replHelp)
		return false
	case ":vars":
		printVars(e, out)
		return false
	case ":save":
		if err := e.Save(); err != nil {
			style.Fprintf(out, style.ErrorPrefix, "%v", err)
		} else {
			style.Fprintf(out, style.SuccessPrefix, "saved")
		}
		return false
	}

	if name, formula, ok := splitAssignment(line); ok {
		if err := assign(e, name, e.Translator().FromUser(formula)); err != nil {
			style.Fprintf(out, style.ErrorPrefix, "%v", err)
			return false
		}
		line = name
	}

	v, _, err := e.EvaluateUser(line)
	if err != nil {
		style.Fprintf(out, style.ErrorPrefix, "%v", describe(err))
		return false
	}
	fmt.Fprintln(out, formatValue(e, v))
	return false
}

// splitAssignment recognises "name = formula". Comparison operators that
// contain '=' are left to the evaluator.
func splitAssignment(line string) (name, formula string, ok bool) {
	i := strings.IndexByte(line, '=')
	if i <= 0 || i+1 < len(line) && line[i+1] == '=' {
		return "", "", false
	}
	name = strings.TrimSpace(line[:i])
	if !scanner.IsName(name) {
		return "", "", false
	}
	return name, strings.TrimSpace(line[i+1:]), true
}

func assign(e *patterncalc.Engine, name, formula string) error {
	if _, err := e.Container().Variable(name, variable.Increment); err == nil {
		return e.SetFormula(name, formula)
	}
	_, err := e.AddIncrement(name, formula, "", true)
	return err
}

func printVars(e *patterncalc.Engine, out io.Writer) {
	c := e.Container()
	tbl := style.NewTable(style.Column{Name: "Name"}, style.Column{Name: "Kind"}, style.Column{Name: "Value", Align: style.AlignRight})
	for _, v := range c.Measurements() {
		tbl.AddRow(v.Name(), v.Kind().String(), valueCell(e, v))
	}
	for _, preview := range []bool{false, true} {
		for _, v := range c.Increments(preview) {
			if v.Kind() == variable.Separator {
				continue
			}
			kind := v.Kind().String()
			if preview {
				kind = "preview"
			}
			tbl.AddRow(v.Name(), kind, valueCell(e, v))
		}
	}
	if tbl.Len() == 0 {
		fmt.Fprintln(out, style.Dim.Render("no variables"))
		return
	}
	fmt.Fprint(out, tbl.Render())
}
