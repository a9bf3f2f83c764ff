package agent

import (
	systemd "github.com/coreos/go-systemd/daemon"
)

func notifyReady() {
	systemd.SdNotify(false, systemd.SdNotifyReady)
}

func notifyStopping() {
	systemd.SdNotify(false, systemd.SdNotifyStopping)
}
