package main

import (
	"os"

	"github.com/mobbind-dev/mobbind/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
