package main

import (
	"os"

	"github.com/garagon/symscan/cmd/symscan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(2)
	}
}
