// Package main is the entry point for the genie-dash CLI binary.
package main

import (
	"os"

	cli "genie-dashboard/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
