package main

import (
	"fmt"
	"log/slog"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/sysmon-dev/sysmon"
)

// systemdNotifier reports readiness and liveness to systemd when running
// under a Type=notify unit. Outside systemd every call is a no-op.
type systemdNotifier struct {
	logger *slog.Logger
}

func newSystemdNotifier() *systemdNotifier {
	return &systemdNotifier{logger: slog.Default()}
}

func (n *systemdNotifier) ready() {
	n.notify(daemon.SdNotifyReady)
}

func (n *systemdNotifier) stopping() {
	n.notify(daemon.SdNotifyStopping)
}

// passComplete pings the watchdog and publishes the last pass as unit status.
func (n *systemdNotifier) passComplete(summary sysmon.PassSummary) {
	n.notify(daemon.SdNotifyWatchdog)
	n.notify(fmt.Sprintf("STATUS=checked %d, available %d, notified %d, failed %d",
		summary.Checked, summary.Available, summary.Notified, summary.Failed))
}

func (n *systemdNotifier) notify(state string) {
	sent, err := daemon.SdNotify(false, state)
	switch {
	case err != nil:
		n.logger.Warn("systemd notify failed", "state", state, "error", err.Error())
	case !sent:
		n.logger.Debug("systemd notify not supported", "state", state)
	}
}
