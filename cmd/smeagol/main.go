// Package main provides the smeagol CLI, a thin wrapper around the
// settings store for reading and editing a settings document from the
// shell.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
