// Package preflight runs advisory checks before an ingest: directory access
// and destination free space. Failures here are surfaced to the user but the
// engine enforces its own fatal preconditions.
package preflight

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// Result captures one preflight check outcome.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckReadableDirectory verifies that path exists, is a directory, and can
// be read and traversed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read")
}

// CheckWritableDirectory verifies that path exists, is a directory, and can
// be written and traversed.
func CheckWritableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.W_OK|unix.X_OK, "write")
}

func checkDirectory(name, path string, mode uint32, verb string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (no %s permission: %v)", path, verb, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s ok)", path, verb)}
}

// CheckFreeSpace reports the space available on the filesystem holding path
// and fails when it is below minBytes.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (statfs: %v)", path, err)}
	}
	available := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s free on %s", humanize.IBytes(available), path)
	if available < minBytes {
		return Result{Name: name, Detail: detail + fmt.Sprintf(" (below %s)", humanize.IBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// minDestinationBytes is the free-space floor below which the destination
// check fails.
const minDestinationBytes = 256 << 20

// ForIngest evaluates the standard pre-run checks for a source tree and a
// resolved destination root.
func ForIngest(sourcePath, destinationRoot string) []Result {
	return []Result{
		CheckReadableDirectory("Source folder", sourcePath),
		CheckWritableDirectory("Destination root", destinationRoot),
		CheckFreeSpace("Destination space", destinationRoot, minDestinationBytes),
	}
}
