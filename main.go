package main

import (
	"os"

	"github.com/radioforge/oskarflow/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
