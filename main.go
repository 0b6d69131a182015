// jfrlens: per-thread accounting and flame graphs for Java Flight Recorder
// recordings.
//
// Usage:
//
//	jfrlens <command> [flags] <file>
//
// Commands: analyze, threads, leaves, tree, trace, diff, export, convert,
// events, script, mcp, version
package main

import (
	"fmt"
	"os"

	"github.com/jerrinot/jfrlens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
