package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hamed0406/sitecheck/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, config.ErrNoURLs) {
			fmt.Fprintln(os.Stderr, "No URLs provided. Provide positional URLs or -f <file>.")
		} else {
			fmt.Fprintln(os.Stderr, "sitecheck:", err)
		}
		os.Exit(1)
	}
}
