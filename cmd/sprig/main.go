// Command sprig renders YAML view scenes through the sprig reconciler.
package main

import (
	"os"

	"github.com/go-drift/sprig/cmd/sprig/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
