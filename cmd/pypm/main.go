// Command pypm is the CLI client for the pypm daemon.
package main

import (
	"runtime/debug"

	"github.com/7c/pypm/internal/cli"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
	cli.Version = version
	cli.Execute()
}
