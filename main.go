package main

import (
	"os"

	"github.com/jobatlas/jobatlas/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
