// Command ibpcode is the interpreter's CLI entry point, following the
// teacher's cmd/dwscript layout: main.go only wires Execute().
package main

import (
	"os"

	"github.com/ibpcode/interpreter/cmd/ibpcode/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
