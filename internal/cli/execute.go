package cli

import (
	"context"
	"fmt"
	"os"
)

// Execute runs the root command with ctx and reports a returned error on
// stderr. The error is returned for the caller to map with GetExitCode.
func Execute(ctx context.Context) error {
	cmd := NewRootCommand()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
