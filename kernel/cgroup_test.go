package kernel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifyCgroupV2Absent(t *testing.T) {
	dir := t.TempDir()
	err := VerifyCgroupV2(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cgroup v2 not detected")
}

func TestVerifyCgroupV2Present(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, cgroupSentinel), nil, 0o644))
	require.NoError(t, VerifyCgroupV2(dir))
}
