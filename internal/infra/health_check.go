package infra

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

const checkExecInterval = 5 * time.Second

// WatchExecutable closes the returned channel once the running binary is replaced on disk,
// so a supervisor can restart the process on the new build. It stays open until ctx is done
// if the binary cannot be inspected.
func WatchExecutable(ctx context.Context) <-chan struct{} {
	changed := make(chan struct{})
	l := log.WithField("context", "watch_executable")

	exe, err := os.Executable()
	if err != nil {
		l.WithError(err).Warn("cant resolve executable path")
		return changed
	}
	stat, err := os.Stat(exe)
	if err != nil {
		l.WithError(err).Warn("cant stat executable")
		return changed
	}
	modTime := stat.ModTime()

	go func() {
		ticker := time.NewTicker(checkExecInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stat, err := os.Stat(exe)
				if err != nil {
					l.WithError(err).Debug("cant stat executable")
					continue
				}
				if !modTime.Equal(stat.ModTime()) {
					l.WithField("path", exe).Warn("executable was modified")
					close(changed)
					return
				}
			}
		}
	}()
	return changed
}
