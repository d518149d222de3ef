// Package overlay assembles a container's copy-on-write root filesystem:
// the image root as lowerdir, a per-container upperdir and workdir, and an
// overlay mount at the merged rootfs path.
package overlay

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/rubberdocker/rdocker/internal/image"
	"github.com/rubberdocker/rdocker/internal/spec"
)

// Assemble ensures the image root exists, creates the per-container
// cow_rw/cow_workdir/rootfs directories, and mounts an overlay filesystem
// at rootfs. It returns the merged rootfs path on success.
func Assemble(s *spec.Spec) (string, error) {
	if err := image.EnsureRoot(s.ImagePath(), s.ImageRoot(), s.ImageLockPath()); err != nil {
		return "", errors.Wrap(err, "ensuring image root")
	}

	for _, dir := range []string{s.CowRWDir(), s.CowWorkDir(), s.RootfsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrapf(err, "creating %s", dir)
		}
	}

	data := mountData(s.ImageRoot(), s.CowRWDir(), s.CowWorkDir())
	rootfs := s.RootfsDir()
	if err := unix.Mount("overlay", rootfs, "overlay", unix.MS_NODEV, data); err != nil {
		return "", errors.Wrapf(err, "mounting overlay at %s", rootfs)
	}
	return rootfs, nil
}

// mountData builds the overlay mount data string for the given lower,
// upper, and work directories.
func mountData(lower, upper, work string) string {
	return fmt.Sprintf("lowerdir=%s,upperdir=%s,workdir=%s", lower, upper, work)
}
