// Command triage runs the context memory blocks: each subcommand reads one
// JSON payload, mutates or queries the context memory, and writes one JSON
// result. Failures are reported inside the result payload so orchestrators
// can always parse the output.
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
