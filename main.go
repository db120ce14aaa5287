package main

import (
	"os"

	"github.com/pyworkflow/dispatch/cli"
)

func main() {
	os.Exit(cli.Execute())
}
