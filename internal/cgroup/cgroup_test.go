package cgroup

import "testing"

func TestCPUPath(t *testing.T) {
	got := CPUPath("abc123")
	want := "/sys/fs/cgroup/cpu/rubber_docker/abc123"
	if got != want {
		t.Fatalf("CPUPath() = %q, want %q", got, want)
	}
}

func TestMemoryPath(t *testing.T) {
	got := MemoryPath("abc123")
	want := "/sys/fs/cgroup/memory/rubber_docker/abc123"
	if got != want {
		t.Fatalf("MemoryPath() = %q, want %q", got, want)
	}
}

func TestFreezerPath(t *testing.T) {
	got := FreezerPath("abc123")
	want := "/sys/fs/cgroup/freezer/rubber_docker/abc123"
	if got != want {
		t.Fatalf("FreezerPath() = %q, want %q", got, want)
	}
}
