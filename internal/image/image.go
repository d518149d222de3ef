// Package image unpacks a tar-packed image into an image root directory,
// filtering out character and block device entries so that device inodes
// are only ever created through the controlled provisioner in
// internal/devices.
package image

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// EnsureRoot makes sure the image at tarPath has been extracted into root,
// extracting it on first use. Concurrent callers racing to extract the same
// image are serialized by an flock held on lockPath across the
// existence-check-and-extract sequence (spec.md §9's documented race,
// resolved as it suggests).
func EnsureRoot(tarPath, root, lockPath string) error {
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return errors.Wrapf(err, "opening image lock %s", lockPath)
	}
	defer lock.Close()

	if err := unix.Flock(int(lock.Fd()), unix.LOCK_EX); err != nil {
		return errors.Wrapf(err, "locking %s", lockPath)
	}
	defer unix.Flock(int(lock.Fd()), unix.LOCK_UN)

	if _, err := os.Stat(root); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat image root %s", root)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return errors.Wrapf(err, "creating image root %s", root)
	}
	if err := Extract(tarPath, root); err != nil {
		return err
	}
	return nil
}

// Extract streams tarPath's entries into dst, preserving file modes and
// skipping any character or block device entry. Extraction into a
// non-empty directory overwrites regular files without failing, making
// repeated extraction into the same root idempotent at the directory-
// contents level.
func Extract(tarPath, dst string) error {
	f, err := os.Open(tarPath)
	if err != nil {
		return errors.Wrapf(err, "opening image tar %s", tarPath)
	}
	defer f.Close()

	tr := tar.NewReader(f)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "reading tar %s", tarPath)
		}

		switch h.Typeflag {
		case tar.TypeChar, tar.TypeBlock:
			// Device inodes are provisioned later, under the runtime's
			// own controlled major/minor policy (internal/devices).
			continue
		}

		path := filepath.Join(dst, h.Name)

		switch h.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, os.FileMode(h.Mode)); err != nil {
				return errors.Wrapf(err, "creating directory %s", path)
			}
			if err := os.Chmod(path, h.FileInfo().Mode()); err != nil {
				return errors.Wrapf(err, "chmod %s", path)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return errors.Wrapf(err, "creating parent of %s", path)
			}
			out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(h.Mode))
			if err != nil {
				return errors.Wrapf(err, "creating %s", path)
			}
			_, cerr := io.Copy(out, tr)
			cerr2 := out.Close()
			if cerr != nil {
				return errors.Wrapf(cerr, "writing %s", path)
			}
			if cerr2 != nil {
				return errors.Wrapf(cerr2, "closing %s", path)
			}
			if err := os.Chmod(path, h.FileInfo().Mode()); err != nil {
				return errors.Wrapf(err, "chmod %s", path)
			}
		case tar.TypeLink:
			target := filepath.Join(dst, h.Linkname)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return errors.Wrapf(err, "replacing existing %s", path)
			}
			if err := os.Link(target, path); err != nil {
				return errors.Wrapf(err, "linking %s to %s", path, target)
			}
		case tar.TypeSymlink:
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return errors.Wrapf(err, "replacing existing %s", path)
			}
			if err := os.Symlink(h.Linkname, path); err != nil {
				return errors.Wrapf(err, "symlinking %s to %s", path, h.Linkname)
			}
		case tar.TypeFifo:
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return errors.Wrapf(err, "creating parent of %s", path)
			}
			if err := unix.Mkfifo(path, uint32(h.Mode)); err != nil && !os.IsExist(err) {
				return errors.Wrapf(err, "mkfifo %s", path)
			}
			if err := os.Chmod(path, h.FileInfo().Mode()); err != nil {
				return errors.Wrapf(err, "chmod %s", path)
			}
		}
	}
}
