package main

import (
	"fmt"
	"os"
)

// main is the entrypoint for the cellgrid CLI.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
