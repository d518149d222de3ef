// Package launcher is the parent-side orchestrator: it clones a child into
// a fresh set of namespaces by re-executing this same binary with a
// sentinel argument, waits for it, and decodes its termination kind.
//
// Go cannot safely perform a raw clone(2) onto a hand-allocated stack the
// way a C container runtime would: the calling goroutine's runtime state
// (scheduler, other goroutines' stacks, GC metadata) would be duplicated
// into a child that never calls exec, which is unsound. The idiomatic Go
// equivalent — and the one this runtime's own teacher already uses — is to
// re-exec /proc/self/exe with os/exec and let the kernel's clone+execve
// pair do the work atomically via SysProcAttr.Cloneflags. The child's own
// freshly exec'd address space is the Go analogue of the "1 MiB stack" and
// "heap-allocated context" spec.md's design notes call for: nothing is
// shared across the exec boundary.
package launcher

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/pkg/errors"

	"github.com/rubberdocker/rdocker/internal/spec"
)

// ChildSentinel is the argv[1] value that tells a re-exec'd process to run
// the guest initializer instead of the CLI.
const ChildSentinel = "--child"

// Result surfaces a guest process's termination kind, matching the
// distinctions a parent created via clone must be able to report.
type Result struct {
	Exited    bool
	ExitCode  int
	Signaled  bool
	Signal    syscall.Signal
	Stopped   bool
	Continued bool
}

// Launch clones a child in new mount, UTS, network, and PID namespaces,
// running the guest initializer for s, writes its (host-visible) PID to
// s.PIDFilePath right after the clone succeeds, and blocks until the child
// exits.
//
// childArgs are the arguments (after argv[0], which is always this
// executable's path) that the re-exec'd process receives; they must begin
// with ChildSentinel so that it takes the --child path in cmd/rdocker's
// dispatch. The Spec itself is not passed here: the child inherits this
// process's environment, which is where the CLI layer places it.
func Launch(s *spec.Spec, childArgs []string) (*Result, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(err, "resolving /proc/self/exe")
	}

	cmd := exec.Command(self, childArgs...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: syscall.CLONE_NEWNS |
			syscall.CLONE_NEWUTS |
			syscall.CLONE_NEWNET |
			syscall.CLONE_NEWPID,
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "clone")
	}

	if err := os.MkdirAll(s.WorkspaceDir(), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating workspace dir %s", s.WorkspaceDir())
	}
	if err := WritePIDFile(s.PIDFilePath(), cmd.Process.Pid); err != nil {
		return nil, err
	}

	waitErr := cmd.Wait()
	return decodeResult(cmd.ProcessState, waitErr)
}

// decodeResult maps a wait4-style process state to the termination kinds
// spec.md §4.7 requires the parent to surface (normal exit, signal,
// stopped, continued).
func decodeResult(state *os.ProcessState, waitErr error) (*Result, error) {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok {
		if waitErr != nil {
			return nil, errors.Wrap(waitErr, "waiting for guest")
		}
		return nil, errors.New("launcher: could not decode wait status")
	}

	res := &Result{
		Exited:    ws.Exited(),
		ExitCode:  ws.ExitStatus(),
		Signaled:  ws.Signaled(),
		Stopped:   ws.Stopped(),
		Continued: ws.Continued(),
	}
	if res.Signaled {
		res.Signal = ws.Signal()
	}
	return res, nil
}

// WritePIDFile records pid at path. Launch calls it after creating the
// container's workspace directory that holds the file.
func WritePIDFile(path string, pid int) error {
	return errors.Wrapf(
		os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644),
		"writing pid file %s", path,
	)
}
