package libpython

import (
	"fmt"
	"strings"
)

// inittabSymbol is the table the interpreter walks to find built-in modules.
const inittabSymbol = "_PyImport_Inittab"

// MakeConfigC produces the content of a config.c defining the built-in
// extensions and their init functions.
//
// The output is a pure function of the input: one extern declaration per
// present init symbol, one table row per extension, both in input order,
// and a single {0, 0} terminator.
func MakeConfigC(extensions []InitFunction) string {
	lines := []string{`#include "Python.h"`}

	for _, ext := range extensions {
		if ext.Init.Present() {
			lines = append(lines, fmt.Sprintf("extern PyObject* %s(void);", ext.Init.Name()))
		}
	}

	lines = append(lines, fmt.Sprintf("struct _inittab %s[] = {", inittabSymbol))

	for _, ext := range extensions {
		lines = append(lines, fmt.Sprintf("{\"%s\", %s},", ext.Name, ext.Init))
	}

	lines = append(lines, "{0, 0}", "};")

	return strings.Join(lines, "\n")
}
