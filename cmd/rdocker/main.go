//go:build linux

// Command rdocker launches a single user-supplied process inside a
// namespace- and overlay-isolated root filesystem assembled from a
// tar-packed image.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rubberdocker/rdocker/internal/cli"
	"github.com/rubberdocker/rdocker/internal/guest"
	"github.com/rubberdocker/rdocker/internal/launcher"
	"github.com/rubberdocker/rdocker/internal/rlog"
	"github.com/rubberdocker/rdocker/internal/spec"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == launcher.ChildSentinel {
		runChild()
		return
	}

	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runChild is the entry point re-exec'd into a fresh set of namespaces by
// internal/launcher. It decodes the Spec the parent marshaled onto
// internal/cli.SpecEnvVar and drives the full guest bring-up sequence.
func runChild() {
	encoded := os.Getenv(cli.SpecEnvVar)
	if encoded == "" {
		rlog.Fatal("child dispatch", cli.SpecEnvVar, fmt.Errorf("missing container spec"))
		return
	}

	var s spec.Spec
	if err := json.Unmarshal([]byte(encoded), &s); err != nil {
		rlog.Fatal("child dispatch", cli.SpecEnvVar, err)
		return
	}

	if err := guest.Run(&s); err != nil {
		rlog.Fatal("guest bring-up", "container "+s.ID.String(), err)
		return
	}
	// guest.Run ends in execve on success; reaching here means it
	// returned without erroring, which should not happen.
	os.Exit(1)
}
