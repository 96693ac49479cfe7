package volume

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const lsblkTimeout = 10 * time.Second

var lsblkPairPattern = regexp.MustCompile(`([A-Z]+)="([^"]*)"`)

// LSBLK enumerates mounted block devices via lsblk -P output.
type LSBLK struct {
	Timeout time.Duration
}

func (l LSBLK) Volumes(ctx context.Context) ([]Volume, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = lsblkTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, err := exec.CommandContext(runCtx, "lsblk", "-P", "-o", "PATH,MOUNTPOINT,LABEL").Output()
	if err != nil {
		return nil, fmt.Errorf("run lsblk: %w", err)
	}
	return ParseLSBLK(string(output)), nil
}

// ParseLSBLK parses lsblk -P key="value" lines into volumes. Devices without
// a mount point are skipped; devices without a label get a synthetic
// Drive_<name> label so they stay selectable.
func ParseLSBLK(output string) []Volume {
	var volumes []Volume
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := map[string]string{}
		for _, match := range lsblkPairPattern.FindAllStringSubmatch(line, -1) {
			fields[match[1]] = match[2]
		}
		mount := fields["MOUNTPOINT"]
		if mount == "" || strings.HasPrefix(mount, "[SWAP") {
			continue
		}
		label := fields["LABEL"]
		if label == "" {
			label = "Drive_" + filepath.Base(fields["PATH"])
		}
		volumes = append(volumes, Volume{MountPath: mount, Label: label})
	}
	return volumes
}

// SystemEnumerator picks the richest enumerator available on this host:
// lsblk when present, otherwise the null fallback.
func SystemEnumerator() Enumerator {
	if _, err := exec.LookPath("lsblk"); err != nil {
		return Null{}
	}
	return LSBLK{}
}
