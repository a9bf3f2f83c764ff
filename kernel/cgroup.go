package kernel

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// cgroupSentinel is the file whose presence marks a cgroup v2 unified
// hierarchy mount.
const cgroupSentinel = "cgroup.controllers"

// VerifyCgroupV2 returns an error naming cgroupRoot if it is not a mounted
// cgroup v2 hierarchy. AgentRuntime calls this before attaching any cgroup
// program, and aborts startup on failure per spec.md §4.5 step 5.
func VerifyCgroupV2(cgroupRoot string) error {
	sentinel := filepath.Join(cgroupRoot, cgroupSentinel)
	if _, err := os.Stat(sentinel); err != nil {
		return fmt.Errorf(
			"cgroup v2 not detected: %s absent (mount cgroup2, e.g. "+
				"`mount -t cgroup2 none %s`, and retry)", sentinel, cgroupRoot)
	}
	return nil
}

// CurrentCgroupDir resolves the cgroup v2 directory this process belongs to,
// under cgroupRoot, by reading /proc/self/cgroup. Falls back to cgroupRoot
// itself if the path can't be resolved to an existing directory.
func CurrentCgroupDir(cgroupRoot string) (string, error) {
	f, err := os.Open("/proc/self/cgroup")
	if err != nil {
		return "", fmt.Errorf("reading /proc/self/cgroup: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, "::")
		if idx < 0 {
			continue
		}
		path := strings.TrimPrefix(line[idx+2:], "/")
		full := filepath.Join(cgroupRoot, path)
		if _, err := os.Stat(full); err == nil {
			return full, nil
		}
	}

	return cgroupRoot, nil
}
