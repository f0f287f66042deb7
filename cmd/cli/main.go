// Package main is the entry point for the semlake CLI binary.
package main

import (
	"os"

	cli "semlake/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
