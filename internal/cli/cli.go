// Package cli wires cobra's command tree to the container bring-up
// pipeline: global --image-dir/--container-dir flags and a run subcommand
// carrying the per-launch knobs of spec.md §6.1.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rubberdocker/rdocker/internal/launcher"
	"github.com/rubberdocker/rdocker/internal/rlog"
	"github.com/rubberdocker/rdocker/internal/spec"
)

// SpecEnvVar carries the JSON-encoded Spec from the parent process to the
// re-exec'd child across the clone boundary (env, not argv: the command
// vector itself may contain arbitrary bytes cobra shouldn't have to
// round-trip through flag parsing twice).
const SpecEnvVar = "RDOCKER_SPEC"

type globalFlags struct {
	imageDir     string
	containerDir string
}

// NewRootCommand builds the "rdocker" command tree.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:          "rdocker",
		Short:        "A minimal namespace-and-overlay container runtime",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.imageDir, "image-dir", "/tmp/rdocker/images", "directory to store unpacked images")
	root.PersistentFlags().StringVar(&g.containerDir, "container-dir", "/tmp/rdocker/containers", "directory to store containers")

	root.AddCommand(newRunCommand(g))
	return root
}

type runFlags struct {
	imageName  string
	command    []string
	memory     string
	memorySwap int
	cpuShares  int
	uid        int
	gid        int
}

func newRunCommand(g *globalFlags) *cobra.Command {
	rf := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a container",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rf.imageName == "" {
				return fmt.Errorf("--image-name is required")
			}
			// --command values come first; any positional arguments
			// (e.g. "--command /bin/echo hello" or "-- /bin/echo hello")
			// complete the command vector.
			command := append(append([]string{}, rf.command...), args...)
			return runContainer(g, rf, command)
		},
	}
	cmd.Flags().StringVar(&rf.imageName, "image-name", "", "name of image to be used (required)")
	cmd.Flags().StringArrayVar(&rf.command, "command", nil, "command to be executed")
	cmd.Flags().StringVar(&rf.memory, "memory", "1G", "memory limit in bytes (k/m/g suffixes accepted)")
	cmd.Flags().IntVar(&rf.memorySwap, "memory-swap", -1, "memory+swap limit; -1 for unlimited swap")
	cmd.Flags().IntVar(&rf.cpuShares, "cpu-shares", 0, "CPU shares (relative weight); 0 for default")
	cmd.Flags().IntVar(&rf.uid, "uid", 0, "target uid after bring-up")
	cmd.Flags().IntVar(&rf.gid, "gid", 0, "target gid after bring-up")

	return cmd
}

func runContainer(g *globalFlags, rf *runFlags, command []string) error {
	s, err := spec.New(rf.imageName, g.imageDir, g.containerDir, command, rf.memory, rf.memorySwap, rf.cpuShares, rf.uid, rf.gid)
	if err != nil {
		return err
	}

	rlog.Stage(fmt.Sprintf("launching container %s", s.ID))

	encoded, err := json.Marshal(s)
	if err != nil {
		return err
	}

	childArgs := []string{launcher.ChildSentinel}
	result, err := launchWithSpec(s, childArgs, encoded)
	if err != nil {
		return err
	}

	switch {
	case result.Exited:
		if result.ExitCode != 0 {
			os.Exit(result.ExitCode)
		}
		return nil
	case result.Signaled:
		rlog.Fatal("run", "guest", fmt.Errorf("guest terminated by signal %s", result.Signal))
		return nil
	default:
		rlog.Fatal("run", "guest", fmt.Errorf("guest left in unexpected wait state: %+v", result))
		return nil
	}
}

// launchWithSpec sets SpecEnvVar on the re-exec'd process's environment
// (via os.Setenv, inherited by the child exec.Command builds internally
// through launcher.Launch's cmd.Env = os.Environ()) and hands off to the
// launcher.
func launchWithSpec(s *spec.Spec, childArgs []string, encoded []byte) (*launcher.Result, error) {
	if err := os.Setenv(SpecEnvVar, string(encoded)); err != nil {
		return nil, err
	}
	return launcher.Launch(s, childArgs)
}
