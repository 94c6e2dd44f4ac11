package main

import (
	"os"

	"github.com/HAN2S/Houps/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
