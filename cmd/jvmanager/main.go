package main

import (
	"os"

	"github.com/jivas-io/jvmanager/cmd/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
