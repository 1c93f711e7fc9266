package main

import (
	"fmt"
	"os"

	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli"
)

func main() {
	if err := cli.NewRoot().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
