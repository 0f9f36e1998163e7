package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	colorRed         = 31
	colorGreen       = 32
	colorYellow      = 33
	colorBlue        = 36
	colorGray        = 37
	colorLightGreen  = 92
	colorLightYellow = 93
	colorCyan        = 96
)

// NbFormatter renders entries as coloured key=value pairs on a single line.
type NbFormatter struct {
	// NoColor drops ANSI escapes, for log files and journald.
	NoColor bool
}

func (f *NbFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b strings.Builder

	b.WriteString(f.key("level"))
	b.WriteByte('=')
	b.WriteString(f.paint(levelColor(entry.Level), strings.ToUpper(entry.Level.String())[:4]))
	f.pair(&b, "ts", colorLightYellow, entry.Time.Format("2006-01-02 15:04:05.000"))
	if entry.HasCaller() {
		f.pair(&b, "source", colorLightYellow, fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line))
	}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := encodeValue(entry.Data[k])
		if s == "" {
			continue
		}
		f.pair(&b, k, valueColor(s), s)
	}
	f.pair(&b, "msg", colorLightGreen, strconv.Quote(entry.Message))

	out := strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(b.String())
	return []byte(out + "\n"), nil
}

func (f *NbFormatter) pair(b *strings.Builder, key string, color int, value string) {
	b.WriteByte(' ')
	b.WriteString(f.key(key))
	b.WriteByte('=')
	b.WriteString(f.paint(color, value))
}

func (f *NbFormatter) key(k string) string {
	return f.paint(colorCyan, k)
}

func (f *NbFormatter) paint(color int, s string) string {
	if f.NoColor {
		return s
	}
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, s)
}

func levelColor(level log.Level) int {
	switch level {
	case log.DebugLevel, log.TraceLevel:
		return colorGray
	case log.WarnLevel:
		return colorYellow
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		return colorRed
	default:
		return colorBlue
	}
}

func encodeValue(v interface{}) string {
	if err, ok := v.(error); ok {
		return strconv.Quote(err.Error())
	}
	m, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(m)
}

func valueColor(s string) int {
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return colorGreen
	}
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return colorLightYellow
	}
	return colorCyan
}
