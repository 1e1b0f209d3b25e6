package main

import (
	"fmt"
	"os"

	"xrctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "\n❌", err)
		os.Exit(1)
	}
}
