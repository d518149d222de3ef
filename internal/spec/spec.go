// Package spec holds the immutable container specification built once from
// CLI input, and the container identity derived alongside it.
package spec

import (
	"path/filepath"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"

	"github.com/rubberdocker/rdocker/internal/cid"
)

// ID is the container identifier type, re-exported from internal/cid so
// callers outside the bring-up pipeline don't need to import it directly.
type ID = cid.ID

// Spec is the immutable description of a single container launch. It is
// built once from CLI input and never mutated afterward; everything the
// bring-up pipeline does is a pure function of a Spec plus kernel state.
type Spec struct {
	ID ID

	ImageName    string
	ImageDir     string
	ContainerDir string

	Command []string

	// Memory is the raw string handed to the CLI (e.g. "1G", "512m"),
	// passed through verbatim to memory.limit_in_bytes.
	Memory string
	// MemoryBytes is Memory parsed to a byte count, used only for
	// diagnostics and eager validation.
	MemoryBytes int64

	// MemorySwap is accepted and recorded but never written to cgroupfs
	// (see DESIGN.md's Open Questions section).
	MemorySwap int

	CPUShares int

	UID int
	GID int
}

// New validates and assembles a Spec, minting a fresh container identity.
func New(imageName, imageDir, containerDir string, command []string, memory string, memorySwap, cpuShares, uid, gid int) (*Spec, error) {
	if imageName == "" {
		return nil, errors.New("image name must not be empty")
	}
	if len(command) == 0 {
		return nil, errors.New("command must not be empty")
	}

	memBytes, err := units.RAMInBytes(memory)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing memory limit %q", memory)
	}

	return &Spec{
		ID:           cid.New(),
		ImageName:    imageName,
		ImageDir:     imageDir,
		ContainerDir: containerDir,
		Command:      command,
		Memory:       memory,
		MemoryBytes:  memBytes,
		MemorySwap:   memorySwap,
		CPUShares:    cpuShares,
		UID:          uid,
		GID:          gid,
	}, nil
}

// ImagePath is the path of the source tar archive for this container's image.
func (s *Spec) ImagePath() string {
	return filepath.Join(s.ImageDir, s.ImageName+".tar")
}

// ImageRoot is the shared, read-only lowerdir extracted from ImagePath.
func (s *Spec) ImageRoot() string {
	return filepath.Join(s.ImageDir, s.ImageName+".root.d")
}

// ImageLockPath is the lock file guarding first-time extraction of ImagePath
// into ImageRoot against concurrent racing launches.
func (s *Spec) ImageLockPath() string {
	return filepath.Join(s.ImageDir, s.ImageName+".lock")
}

// WorkspaceDir is the per-container directory holding cow_rw, cow_workdir,
// and rootfs.
func (s *Spec) WorkspaceDir() string {
	return filepath.Join(s.ContainerDir, s.ID.String())
}

func (s *Spec) CowRWDir() string   { return filepath.Join(s.WorkspaceDir(), "cow_rw") }
func (s *Spec) CowWorkDir() string { return filepath.Join(s.WorkspaceDir(), "cow_workdir") }
func (s *Spec) RootfsDir() string  { return filepath.Join(s.WorkspaceDir(), "rootfs") }
func (s *Spec) OldRootDir() string { return filepath.Join(s.RootfsDir(), "old_root") }

// CIDFilePath and PIDFilePath are the identity files of spec.md §6.2. They
// live in the container's workspace directory rather than inside the
// overlay rootfs: the workspace dir is guaranteed to exist before the
// overlay is ever assembled (guest step 1 runs before guest step 5), and
// the files must stay reachable by the host after pivot_root makes the
// rootfs's own view of "/old_root" disappear.
func (s *Spec) CIDFilePath() string { return filepath.Join(s.WorkspaceDir(), "container.cid") }
func (s *Spec) PIDFilePath() string { return filepath.Join(s.WorkspaceDir(), "container.pid") }

func (s *Spec) ResolvConfPath() string {
	return filepath.Join(s.RootfsDir(), "etc", "resolv.conf")
}
