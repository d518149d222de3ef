// Package devices provisions the container's standard device nodes and
// std-fd symlinks on the freshly mounted /dev tmpfs.
package devices

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// node describes a character device to create under rootfs/dev.
type node struct {
	name  string
	major uint32
	minor uint32
}

// Nodes is the fixed device table from spec.md §4.5. The duplicated "null"
// entry is intentional and preserved: Provision skips paths that already
// exist, so the second insertion is a documented no-op.
var Nodes = []node{
	{"null", 1, 3},
	{"zero", 1, 5},
	{"random", 1, 8},
	{"urandom", 1, 9},
	{"console", 136, 3},
	{"null", 1, 3},
}

// stdFDs maps dev/{stdin,stdout,stderr} to /proc/self/fd/{0,1,2}, by list
// position.
var stdFDs = []string{"stdin", "stdout", "stderr"}

// Provision symlinks the standard streams and creates the character
// devices under rootfs/dev, skipping any node whose path already exists.
// Existing nodes of the wrong type/major/minor are deliberately left
// untouched (spec.md §3 invariant: "present siblings of wrong type/major/
// minor are not repaired").
func Provision(rootfs string) error {
	dev := filepath.Join(rootfs, "dev")

	for i, name := range stdFDs {
		dst := filepath.Join(dev, name)
		src := filepath.Join("/proc/self/fd", string(rune('0'+i)))
		if err := os.Symlink(src, dst); err != nil && !os.IsExist(err) {
			return errors.Wrapf(err, "symlinking %s to %s", dst, src)
		}
	}

	for _, n := range Nodes {
		path := filepath.Join(dev, n.name)
		if _, err := os.Lstat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "stat %s", path)
		}

		devNum := unix.Mkdev(n.major, n.minor)
		if err := unix.Mknod(path, unix.S_IFCHR|0o666, int(devNum)); err != nil {
			return errors.Wrapf(err, "mknod %s (major=%d minor=%d)", path, n.major, n.minor)
		}
	}
	return nil
}
