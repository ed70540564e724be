package main

import (
	"os"

	"ficboard/cmd/ficboard/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
