//go:build linux

package cgroup

import (
	"os"
	"strconv"
	"strings"
	"testing"
)

// TestEnrollWritesTasksAndShares exercises real cgroupfs writes, skipping
// when the v1 cpu/memory hierarchy isn't mounted or isn't writable rather
// than omitting the coverage.
func TestEnrollWritesTasksAndShares(t *testing.T) {
	if _, err := os.Stat("/sys/fs/cgroup/cpu"); err != nil {
		t.Skip("cgroup v1 cpu controller not mounted")
	}
	if os.Getuid() != 0 {
		t.Skip("cgroup enrollment requires root")
	}

	id := "rdocker-integration-test"
	t.Cleanup(func() {
		os.RemoveAll(CPUPath(id))
		os.RemoveAll(MemoryPath(id))
	})

	if err := Enroll(id, os.Getpid(), 512, "64m"); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	shares, err := os.ReadFile(CPUPath(id) + "/cpu.shares")
	if err != nil {
		t.Fatalf("reading cpu.shares: %v", err)
	}
	if len(shares) == 0 {
		t.Fatal("cpu.shares is empty")
	}

	tasks, err := os.ReadFile(CPUPath(id) + "/tasks")
	if err != nil {
		t.Fatalf("reading tasks: %v", err)
	}
	if !strings.Contains(string(tasks), strconv.Itoa(os.Getpid())) {
		t.Fatalf("tasks %q does not list pid %d", tasks, os.Getpid())
	}
}
