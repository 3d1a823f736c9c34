// Package main provides the dashsql command.
package main

import (
	"os"

	"github.com/leapstack-labs/dashsql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
