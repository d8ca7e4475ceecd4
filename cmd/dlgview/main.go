// Package main is the entry point for the dlgview CLI.
package main

import (
	"os"

	"github.com/f3rmion/dlgview/cmd/dlgview/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
