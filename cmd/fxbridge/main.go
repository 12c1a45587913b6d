package main

import (
	"os"

	"github.com/rustyeddy/fxbridge/cmd/fxbridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
