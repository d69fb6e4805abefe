package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			if globalFlags.Verbose {
				fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			} else {
				fmt.Fprintln(os.Stderr, "Run with --verbose for stack trace")
			}
			os.Exit(ExitError)
		}
	}()

	if err := Execute(context.Background()); err != nil {
		os.Exit(HandleError(rootCmd, err))
	}
	os.Exit(ExitSuccess)
}
