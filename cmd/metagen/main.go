package main

import (
	"os"

	"github.com/andishehs/MetaGen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
