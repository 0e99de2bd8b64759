package gateways

import (
	"fmt"
	"os"

	"github.com/ochairo/fetchrun/internal/domain/entities"
)

// PermissionSetter grants execute permission on staged artifacts
type PermissionSetter struct{}

// NewPermissionSetter creates a new permission setter
func NewPermissionSetter() *PermissionSetter {
	return &PermissionSetter{}
}

// ExecutableMode copies each read bit of mode onto the matching execute
// bit, for owner, group and other.
func ExecutableMode(mode os.FileMode) os.FileMode {
	return mode | (mode&0o444)>>2
}

// MakeExecutable applies ExecutableMode to the file at path and returns
// the resulting permission bits.
func (p *PermissionSetter) MakeExecutable(path string) (uint32, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to stat %s: %w", entities.ErrPermission, path, err)
	}

	mode := ExecutableMode(info.Mode().Perm())
	if err := os.Chmod(path, mode); err != nil {
		return 0, fmt.Errorf("%w: failed to chmod %s: %w", entities.ErrPermission, path, err)
	}

	return uint32(mode), nil
}
