// Package main is the entry point for the ShadowAgent service.
package main

import (
	"context"
	"fmt"
	"os"

	"shadowagent/bootstrap"
	"shadowagent/cmd"
)

// run initializes and starts the ShadowAgent service.
func run() error {
	ctx := context.Background()

	app, err := bootstrap.NewApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(ctx); err != nil {
		app.Shutdown()
		return fmt.Errorf("failed to start application: %w", err)
	}

	app.WaitForShutdown()
	app.Shutdown()

	return nil
}

// main is the entry point.
func main() {
	// CLI mode: user account management runs and exits without starting
	// the server.
	if len(os.Args) > 1 && os.Args[1] == "user" {
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

		userCmd := cmd.NewUserCmd()
		if err := userCmd.Execute(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
