// Package main is the entry point for the pybundle CLI.
package main

import (
	"fmt"
	"os"

	"github.com/rshade/pybundle/internal/cli"
	"github.com/rshade/pybundle/pkg/version"
)

func main() {
	cmd := cli.NewRootCmd(version.GetVersion())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
