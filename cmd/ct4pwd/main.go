package main

import (
	"os"

	"github.com/msto63/ct4pwd/cmd/ct4pwd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
