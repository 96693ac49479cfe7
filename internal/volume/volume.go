package volume

import (
	"context"
	"errors"
	"fmt"
)

// Volume pairs a mount path with the human-assigned filesystem label used to
// locate it independent of its current mount point.
type Volume struct {
	MountPath string
	Label     string
}

// ErrNotFound reports that no currently visible volume carries the requested
// label, e.g. the drive is unplugged or was remounted elsewhere.
var ErrNotFound = errors.New("volume not found")

// Enumerator lists the storage volumes currently visible to the host.
// Enumeration results are ephemeral and must not be cached across operations.
type Enumerator interface {
	Volumes(ctx context.Context) ([]Volume, error)
}

// Resolve maps a label to its current mount path by exact match against a
// fresh enumeration. A nil enumerator falls back to the null enumerator.
func Resolve(ctx context.Context, enum Enumerator, label string) (string, error) {
	if enum == nil {
		enum = Null{}
	}
	volumes, err := enum.Volumes(ctx)
	if err != nil {
		return "", fmt.Errorf("enumerate volumes: %w", err)
	}
	for _, vol := range volumes {
		if vol.Label == label {
			return vol.MountPath, nil
		}
	}
	return "", fmt.Errorf("%w: label %q", ErrNotFound, label)
}

// Null is the fallback enumerator for hosts without a usable volume listing.
// It reports a single synthetic default volume.
type Null struct{}

func (Null) Volumes(context.Context) ([]Volume, error) {
	return []Volume{{MountPath: "/", Label: "Local Drive"}}, nil
}
