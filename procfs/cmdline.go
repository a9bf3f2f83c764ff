package procfs

import (
	"bytes"
	"fmt"

	"github.com/spf13/afero"
)

// readCmdline parses /proc/<pid>/cmdline: NUL-separated argv, with empty
// pieces dropped. A missing file or empty content yields a nil slice —
// callers treat that as "not available", not an error.
func readCmdline(fs afero.Fs, pid uint32) []string {
	path := fmt.Sprintf("/proc/%d/cmdline", pid)

	raw, err := afero.ReadFile(fs, path)
	if err != nil || len(raw) == 0 {
		return nil
	}

	var argv []string
	for _, part := range bytes.Split(raw, []byte{0}) {
		if len(part) == 0 {
			continue
		}
		argv = append(argv, string(bytes.ToValidUTF8(part, []byte("�"))))
	}
	return argv
}
