// Command postsmith generates LinkedIn posts from the terminal.
//
//	postsmith generate "AI trends 2025"
//	postsmith generate --concurrency 2 "remote work" "green energy"
//	postsmith config
//
// It reads the same configuration as the server.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
