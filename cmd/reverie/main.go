package main

import (
	"os"

	"github.com/ishaan-bit/reverie/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
