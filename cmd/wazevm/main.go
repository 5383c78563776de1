// Command wazevm runs a single WebAssembly module from the command line
// (SPEC_FULL.md §10): load it, instantiate it, optionally invoke one of
// its exported functions, and report the result or trap.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:]))
}
