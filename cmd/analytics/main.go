// Command analytics is the command-line front end of the analytics reducer store.
package main

import (
	"fmt"
	"os"

	"github.com/ivanyeors/ai-analytics-platform/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
