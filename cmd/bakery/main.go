package main

import (
	"os"

	"github.com/bakery-bliss/bakery/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
