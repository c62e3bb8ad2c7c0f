package main

import (
	"os"

	"github.com/gar1t/groktest/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
