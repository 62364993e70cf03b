// Package main provides the entry point for the stubgen CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/stubgen/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
