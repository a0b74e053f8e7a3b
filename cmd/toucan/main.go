package main

import (
	"fmt"
	"os"

	"github.com/h66840/graph-toucan-sub001/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
