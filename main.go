// Command dupes finds files with identical content under a directory.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/dupes/internal/cli"
)

// version is set at build time via -ldflags.
//
//nolint:gochecknoglobals // Build-time variable
var version = "unknown - unofficial & generated by unknown"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
