// Package guest implements the ordered bring-up sequence that runs inside
// the freshly cloned child, from identity persistence through the final
// execve of the user command. Every step below runs in the order spec.md
// §4.8 mandates; reordering any of them breaks one of its invariants.
package guest

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/rubberdocker/rdocker/internal/cgroup"
	"github.com/rubberdocker/rdocker/internal/devices"
	"github.com/rubberdocker/rdocker/internal/execadapter"
	"github.com/rubberdocker/rdocker/internal/mounts"
	"github.com/rubberdocker/rdocker/internal/overlay"
	"github.com/rubberdocker/rdocker/internal/rlog"
	"github.com/rubberdocker/rdocker/internal/spec"
)

// Run drives the full in-child sequence and, on success, never returns —
// it ends in execve. If it does return, the caller must exit non-zero.
func Run(s *spec.Spec) error {
	if err := persistIdentity(s); err != nil {
		return err
	}

	if err := enrollCgroups(s); err != nil {
		return err
	}

	if err := setHostname(s); err != nil {
		return err
	}

	if err := privatizeRoot(); err != nil {
		return err
	}

	rlog.DumpFile("mounts before overlay", "/proc/self/mountinfo")
	rootfs, err := overlay.Assemble(s)
	if err != nil {
		return err
	}
	rlog.DumpFile("mounts after overlay", "/proc/self/mountinfo")

	if err := mounts.Build(rootfs); err != nil {
		return errors.Wrap(err, "building guest mounts")
	}

	if err := devices.Provision(rootfs); err != nil {
		return errors.Wrap(err, "provisioning devices")
	}

	if err := pivot(rootfs); err != nil {
		return err
	}

	if err := writeResolvConf(); err != nil {
		return err
	}

	if err := dropCredentials(s); err != nil {
		return err
	}

	rlog.Stage("execve")
	return execadapter.Exec(s.Command)
}

func persistIdentity(s *spec.Spec) error {
	rlog.Stage("persist identity")
	if err := os.MkdirAll(s.WorkspaceDir(), 0o755); err != nil {
		return errors.Wrapf(err, "creating workspace dir %s", s.WorkspaceDir())
	}
	if err := os.WriteFile(s.CIDFilePath(), []byte(s.ID.String()), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", s.CIDFilePath())
	}
	return nil
}

func enrollCgroups(s *spec.Spec) error {
	rlog.Stage("cgroup enrollment")
	return cgroup.Enroll(s.ID.String(), os.Getpid(), s.CPUShares, s.Memory)
}

func setHostname(s *spec.Spec) error {
	rlog.Stage("sethostname")
	rlog.Dump("hostname before", "hostname")
	if err := unix.Sethostname([]byte(s.ID.String())); err != nil {
		return errors.Wrap(err, "sethostname")
	}
	rlog.Dump("hostname after", "hostname")
	return nil
}

// privatizeRoot remounts "/" MS_PRIVATE|MS_REC so that none of the mounts
// the guest is about to make are visible outside its own mount namespace.
// This must happen before any mount inside rootfs (spec.md §5 ordering
// guarantee).
func privatizeRoot() error {
	rlog.Stage("privatize root")
	if err := unix.Mount("", "/", "", unix.MS_PRIVATE|unix.MS_REC, ""); err != nil {
		return errors.Wrap(err, "remounting / private-recursive")
	}
	return nil
}

// pivot swaps the calling process's root with rootfs, stashing the old
// root at rootfs/old_root, then lazily unmounts and removes old_root.
func pivot(rootfs string) error {
	rlog.Stage("pivot_root")
	oldRoot := rootfs + "/old_root"
	if err := os.MkdirAll(oldRoot, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", oldRoot)
	}
	if err := unix.PivotRoot(rootfs, oldRoot); err != nil {
		return errors.Wrapf(err, "pivot_root(%s, %s)", rootfs, oldRoot)
	}
	if err := unix.Chdir("/"); err != nil {
		return errors.Wrap(err, "chdir /")
	}
	if err := unix.Unmount("/old_root", unix.MNT_DETACH); err != nil {
		return errors.Wrap(err, "lazily unmounting /old_root")
	}
	if err := os.RemoveAll("/old_root"); err != nil {
		return errors.Wrap(err, "removing /old_root")
	}
	return nil
}

func writeResolvConf() error {
	rlog.Stage("resolv.conf")
	path := "/etc/resolv.conf"
	if err := os.MkdirAll("/etc", 0o755); err != nil {
		return errors.Wrap(err, "creating /etc")
	}
	if err := os.WriteFile(path, []byte("nameserver 8.8.8.8\n"), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// dropCredentials sets gid then uid, in that order, and must run after
// every privileged mount/mknod and before execve (spec.md §3 invariant).
func dropCredentials(s *spec.Spec) error {
	rlog.Stage("drop credentials")
	if err := unix.Setgid(s.GID); err != nil {
		return errors.Wrapf(err, "setgid(%d)", s.GID)
	}
	if err := unix.Setuid(s.UID); err != nil {
		return errors.Wrapf(err, "setuid(%d)", s.UID)
	}
	return nil
}
