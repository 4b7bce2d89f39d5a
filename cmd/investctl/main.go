package main

import (
	"os"

	"github.com/dmitrijs2005/investsync/internal/admincli"
)

func main() {
	if err := admincli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
