package policy

import (
	"fmt"
	"syscall"

	libpidfd "github.com/nestybox/sysbox-libs/pidfd"
	"golang.org/x/sys/unix"

	"github.com/hostwatch/edr-agent/domain"
)

// PidfdKiller delivers SIGKILL through a pidfd, the same pattern
// state/container.go uses to hold a stable reference to a process across
// its lifetime: opening the fd and signaling through it avoids racing a pid
// that got reused between the exec event and the kill. libpidfd.PidFd is a
// bare file descriptor (an int), exactly as state/container.go treats it
// (closed via unix.Close(int(fd)), never a method call) — so signaling and
// closing go through golang.org/x/sys/unix, not a PidFd method. Falls back
// to a plain kill(2) on kernels without pidfd_open (still best-effort,
// matching the fail-open spirit of the rest of this design).
type PidfdKiller struct{}

func (PidfdKiller) KillTgid(tgid uint32) error {
	fd, err := libpidfd.Open(int(tgid), 0)
	if err != nil {
		if err := unix.Kill(int(tgid), syscall.SIGKILL); err != nil {
			return fmt.Errorf("killing tgid %d: %w", tgid, err)
		}
		return nil
	}
	defer unix.Close(int(fd))

	if err := unix.PidfdSendSignal(int(fd), syscall.SIGKILL, nil, 0); err != nil {
		return fmt.Errorf("pidfd_send_signal tgid %d: %w", tgid, err)
	}
	return nil
}

var _ domain.KillerIface = PidfdKiller{}
