//go:build linux

package overlay

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/rubberdocker/rdocker/internal/spec"
)

// TestAssembleMountsOverlay actually performs the privileged overlay mount
// and unmounts it again, mirroring apptainer's own e2e pattern of skipping
// on missing root rather than omitting privileged coverage.
func TestAssembleMountsOverlay(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("overlay mount requires root")
	}

	dir := t.TempDir()
	imageDir := filepath.Join(dir, "images")
	containerDir := filepath.Join(dir, "containers")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		t.Fatal(err)
	}

	s, err := spec.New("scratch", imageDir, containerDir, []string{"/bin/true"}, "1G", -1, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(s.ImageRoot(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.ImageRoot(), "marker"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	rootfs, err := Assemble(s)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	t.Cleanup(func() { unmount(t, rootfs) })

	if _, err := os.Stat(filepath.Join(rootfs, "marker")); err != nil {
		t.Fatalf("expected lowerdir contents visible in merged rootfs: %v", err)
	}
}

func unmount(t *testing.T, path string) {
	t.Helper()
	if err := unix.Unmount(path, unix.MNT_DETACH); err != nil {
		t.Logf("unmounting %s: %v", path, err)
	}
}
