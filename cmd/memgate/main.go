// Package main provides the entry point for the memgate CLI and server.
package main

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/memgate-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
