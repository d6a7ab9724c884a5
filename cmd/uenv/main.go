// Command uenv manages and runs user environments: a local,
// content-addressed repository of squashfs images plus an OCI
// registry sync client (see internal/cli for the command tree).
package main

import (
	"fmt"
	"os"

	"github.com/eth-cscs/uenv/internal/cli"
	"github.com/eth-cscs/uenv/internal/errs"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	root := cli.NewRootCommand(version)
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "uenv: %s: %v\n", errs.Category(err), err)
	}
	os.Exit(errs.ExitCode(err))
}
