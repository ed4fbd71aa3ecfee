package main

import (
	"errors"
	"os"

	"github.com/fatih/color"

	"github.com/Rana718/migcheck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		color.Red("❌ %v", err)
		os.Exit(2)
	}
}
