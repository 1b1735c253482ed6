package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"taxonid/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			if services.Kind(err) == "configuration" {
				fmt.Fprintln(os.Stderr, "Run 'taxonid config init' or pass --config to point at a valid file.")
			}
		}
		os.Exit(services.ExitCode(err))
	}
}
