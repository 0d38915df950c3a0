// Command shale runs scripts against an embedded interpreter. It exposes
// three modes: run (execute a file, optionally re-running on change), eval
// (execute a snippet from the command line), and repl (interactive session).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
