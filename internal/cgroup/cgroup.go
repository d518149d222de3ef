// Package cgroup enrolls the guest process into per-container cgroup v1
// nodes and applies CPU share and memory limit knobs. Enrollment must
// happen while the caller still has write access to cgroupfs, i.e. before
// the guest drops to its target uid/gid.
package cgroup

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

const root = "/sys/fs/cgroup"

// group is the shared parent directory under each controller that all
// rdocker containers enroll beneath.
const group = "rubber_docker"

// CPUPath returns the per-container node under the cpu controller.
func CPUPath(id string) string { return filepath.Join(root, "cpu", group, id) }

// MemoryPath returns the per-container node under the memory controller.
func MemoryPath(id string) string { return filepath.Join(root, "memory", group, id) }

// FreezerPath returns the per-container node under the freezer controller,
// used only by Pause/Resume (a supplemental, non-bring-up capability).
func FreezerPath(id string) string { return filepath.Join(root, "freezer", group, id) }

// Enroll creates the cpu and memory cgroup nodes for id, writes pid into
// both tasks files, and applies cpuShares and memoryLimit.
func Enroll(id string, pid int, cpuShares int, memoryLimit string) error {
	if err := enrollController(CPUPath(id), pid); err != nil {
		return err
	}
	if cpuShares > 0 {
		if err := writeKnob(CPUPath(id), "cpu.shares", strconv.Itoa(cpuShares)); err != nil {
			return err
		}
	}

	if err := enrollController(MemoryPath(id), pid); err != nil {
		return err
	}
	if memoryLimit != "" {
		if err := writeKnob(MemoryPath(id), "memory.limit_in_bytes", memoryLimit); err != nil {
			return err
		}
	}

	// memory.memsw.limit_in_bytes is deliberately never written here: see
	// DESIGN.md's Open Questions section.
	return nil
}

func enrollController(path string, pid int) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.Wrapf(err, "creating cgroup node %s", path)
	}
	return writeKnob(path, "tasks", strconv.Itoa(pid))
}

func writeKnob(dir, file, value string) error {
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s to %s", value, path)
	}
	return nil
}

// Pause writes FROZEN to freezer.state under FreezerPath(id), freezing the
// processes in that freezer node. Supplemental to the bring-up pipeline;
// never called by internal/guest. Enroll neither creates the freezer node
// nor adds the guest to it, so Pause fails when the node does not exist
// and freezes only tasks that were placed there by other means.
func Pause(id string) error {
	return writeKnob(FreezerPath(id), "freezer.state", "FROZEN")
}

// Resume writes THAWED to freezer.state under FreezerPath(id).
func Resume(id string) error {
	return writeKnob(FreezerPath(id), "freezer.state", "THAWED")
}
