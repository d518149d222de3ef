// Package execadapter performs the final handover of the guest process to
// the user-supplied command, with a cleared environment. It runs after
// pivot_root and the uid/gid drop, in the same process that was cloned —
// there is no child left to fork, so this is a plain execve, not os/exec.
package execadapter

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Exec replaces the calling process image with command, inheriting its
// already-pivoted filesystem view and already-dropped credentials, with an
// empty environment. On success it does not return. Per spec.md §9, the
// cleared environment means command[0] must be an absolute path — there is
// no PATH left to search.
func Exec(command []string) error {
	if len(command) == 0 {
		return errors.New("execadapter: empty command")
	}
	err := unix.Exec(command[0], command, nil)
	return errors.Wrapf(err, "execve %s", command[0])
}
