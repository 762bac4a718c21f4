// patterncalc evaluates and manages the formulas of a pattern document.
package main

import (
	"os"

	"nickandperla.net/patterncalc/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
