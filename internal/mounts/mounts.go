// Package mounts populates the container's proc/sys/dev/devpts mounts
// inside the merged overlay rootfs, after the mount namespace has been
// made private and the overlay is live.
package mounts

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// entry describes one mount to create under the container rootfs.
type entry struct {
	target string // relative to rootfs
	source string
	fstype string
	flags  uintptr
	data   string
}

// Table is the fixed set of mounts spec.md §4.4 requires, in order.
var Table = []entry{
	{target: "proc", source: "proc", fstype: "proc"},
	{target: "sys", source: "sysfs", fstype: "sysfs"},
	{target: "dev", source: "tmpfs", fstype: "tmpfs", flags: unix.MS_NOSUID | unix.MS_STRICTATIME, data: "mode=755"},
	{target: "dev/pts", source: "devpts", fstype: "devpts"},
}

// Build creates the intermediate directories and performs every mount in
// Table under rootfs, in order. dev/pts is created after dev is mounted, so
// its directory lives on the fresh tmpfs rather than the overlay.
func Build(rootfs string) error {
	for _, m := range Table {
		target := filepath.Join(rootfs, m.target)
		if err := os.MkdirAll(target, 0o755); err != nil {
			return errors.Wrapf(err, "creating mount target %s", target)
		}
		if err := unix.Mount(m.source, target, m.fstype, m.flags, m.data); err != nil {
			return errors.Wrapf(err, "mounting %s at %s", m.fstype, target)
		}
	}
	return nil
}
