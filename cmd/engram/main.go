package main

import (
	"fmt"
	"os"

	"github.com/engram-oss/engram/internal/cli"
	"github.com/engram-oss/engram/internal/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if s := errors.Suggestion(err); s != "" {
			fmt.Fprintln(os.Stderr, "  →", s)
		}
		os.Exit(1)
	}
}
