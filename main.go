package main

import (
	"os"

	"github.com/anhp95/lang/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
