package infra

import (
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// GoRecoverable runs f and restarts it on a new goroutine after a panic, at most maxPanics times.
// A negative maxPanics restarts forever. Once the budget is spent the last panic is logged and
// onExhausted, if set, is called.
func GoRecoverable(maxPanics int, job string, f func(), onExhausted func()) {
	l := log.WithField("context", "recoverable").WithField("job", job)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		l.WithField("at", identifyPanic()).Errorf("panic: %v", r)
		if maxPanics == 0 {
			l.Error("panic budget exhausted")
			if onExhausted != nil {
				onExhausted()
			}
			return
		}
		if maxPanics > 0 {
			maxPanics--
		}
		l.WithField("left", maxPanics).Debug("restarting")
		go GoRecoverable(maxPanics, job, f, onExhausted)
	}()
	f()
}

func identifyPanic() string {
	var name, file string
	var line int
	var pc [16]uintptr

	n := runtime.Callers(3, pc[:])
	for _, pc := range pc[:n] {
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		file, line = fn.FileLine(pc)
		name = fn.Name()
		if !strings.HasPrefix(name, "runtime.") {
			break
		}
	}

	switch {
	case name != "":
		return fmt.Sprintf("%v:%v", name, line)
	case file != "":
		return fmt.Sprintf("%v:%v", file, line)
	}
	return fmt.Sprintf("pc:%x", pc)
}
