package main

import (
	"os"

	"github.com/sadopc/hourtree/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
