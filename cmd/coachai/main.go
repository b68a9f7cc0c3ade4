// Command coachai is the entry point for the CoachAI instructional coaching
// assistant. It provides a CLI interface (via Cobra) and an HTTP server with
// a REST/SSE API for interactive use.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/edukit/coachai-go/cmd/coachai/commands"
)

func main() {
	_ = godotenv.Load()

	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
