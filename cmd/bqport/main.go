// Command bqport deploys a tree of local SQL files to a BigQuery-shaped
// cloud warehouse. Wiring a concrete warehouse.Client is left to whatever
// build of this binary targets a real warehouse; see cli.NewClient.
package main

import (
	"fmt"
	"os"

	"github.com/bqport/bqport/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bqport:", err)
		os.Exit(1)
	}
}
