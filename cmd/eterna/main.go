package main

import (
	"os"

	"github.com/Anika-Jha/Eterna/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
