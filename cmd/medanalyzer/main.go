// Package main implements the medanalyzer command-line form client.
package main

import (
	"fmt"
	"os"
)

var version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
