package main

import (
	"os"

	"github.com/kilianp07/emobts/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
