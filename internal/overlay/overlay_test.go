package overlay

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/rubberdocker/rdocker/internal/spec"
)

func TestMountData(t *testing.T) {
	got := mountData("/images/alpine.root.d", "/c/abc/cow_rw", "/c/abc/cow_workdir")
	want := "lowerdir=/images/alpine.root.d,upperdir=/c/abc/cow_rw,workdir=/c/abc/cow_workdir"
	if got != want {
		t.Fatalf("mountData() = %q, want %q", got, want)
	}
}

// TestAssembleCreatesWorkspaceLayout exercises everything Assemble does up
// to the privileged overlay mount call, by pointing it at an image whose
// root already exists so EnsureRoot is a no-op and the only remaining
// syscall is the mount itself, which fails on an unprivileged runner (and
// is undone again when it succeeds as root). It then verifies the directory
// layout invariant from spec.md §3: upper/work/rootfs are created and
// distinct.
func TestAssembleCreatesWorkspaceLayout(t *testing.T) {
	dir := t.TempDir()
	imageDir := filepath.Join(dir, "images")
	containerDir := filepath.Join(dir, "containers")
	if err := os.MkdirAll(filepath.Join(imageDir, "alpine.root.d"), 0o755); err != nil {
		t.Fatal(err)
	}

	s, err := spec.New("alpine", imageDir, containerDir, []string{"/bin/true"}, "1G", -1, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	if rootfs, err := Assemble(s); err == nil {
		t.Cleanup(func() { unix.Unmount(rootfs, unix.MNT_DETACH) })
	} else {
		t.Logf("Assemble (mount expected to fail without root): %v", err)
	}

	if s.RootfsDir() == s.CowRWDir() || s.RootfsDir() == s.CowWorkDir() {
		t.Fatal("rootfs must not be the same path as cow_rw or cow_workdir")
	}
	for _, dir := range []string{s.CowRWDir(), s.CowWorkDir(), s.RootfsDir()} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("expected %s to exist: %v", dir, err)
		}
	}
}
