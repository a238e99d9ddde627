// Command countydata loads CSV files into SQLite and serves county health
// lookups by ZIP code.
package main

import (
	"context"
	"os"

	"github.com/yravipati/countydata/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
