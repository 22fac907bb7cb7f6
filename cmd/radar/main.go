// Command radar is the Chokepoint Radar entry point.
package main

import (
	"fmt"
	"os"

	"chokepoint-radar/internal/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
