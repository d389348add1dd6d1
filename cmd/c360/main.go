package main

import (
	"context"
	"fmt"
	"os"

	"finitefield.org/c360-builder/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "c360: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
