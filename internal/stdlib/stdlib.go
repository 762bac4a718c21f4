// Package stdlib embeds the reference text of the formula language.
package stdlib

import _ "embed"

// Functions documents every builtin function, constant and operator.
//
//go:embed FUNCTIONS.md
var Functions string
