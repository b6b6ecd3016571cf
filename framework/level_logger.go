package framework

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

const levelTimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Level is a logging threshold. Messages at a level greater than the logger's threshold are
// discarded, so LevelDebug is the most verbose.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var levelNames = map[Level]string{ //nolint:gochecknoglobals
	LevelError: "ERROR",
	LevelWarn:  "WARN",
	LevelInfo:  "INFO",
	LevelDebug: "DEBUG",
}

var levelColors = map[Level]*color.Color{ //nolint:gochecknoglobals
	LevelError: color.New(color.FgRed),
	LevelWarn:  color.New(color.FgYellow),
	LevelInfo:  color.New(color.FgCyan),
	LevelDebug: color.New(color.Faint),
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel converts a level name such as "warn" or "DEBUG" to a Level. Anything unrecognized
// is treated as LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// StepStatus is the outcome reported by LevelLogger.LogScenarioStatus.
type StepStatus string

const (
	StepPassed  StepStatus = "PASS"
	StepFailed  StepStatus = "FAIL"
	StepSkipped StepStatus = "SKIP"
)

// LevelLogger writes "[LEVEL] timestamp - message" lines to an io.Writer, dropping anything
// above its threshold. The threshold is fixed at construction. It implements Logger by logging
// at LevelInfo.
type LevelLogger struct {
	out   io.Writer
	level Level
	now   func() time.Time
	lock  sync.Mutex
}

func NewLevelLogger(out io.Writer, level Level) *LevelLogger {
	return &LevelLogger{out: out, level: level, now: time.Now}
}

func (l *LevelLogger) Level() Level { return l.level }

func (l *LevelLogger) Enabled(level Level) bool { return level <= l.level }

func (l *LevelLogger) Errorf(message string, args ...interface{}) { l.log(LevelError, message, args...) }
func (l *LevelLogger) Warnf(message string, args ...interface{})  { l.log(LevelWarn, message, args...) }
func (l *LevelLogger) Infof(message string, args ...interface{})  { l.log(LevelInfo, message, args...) }
func (l *LevelLogger) Debugf(message string, args ...interface{}) { l.log(LevelDebug, message, args...) }

func (l *LevelLogger) Println(args ...interface{}) {
	l.log(LevelInfo, "%s", strings.TrimRight(fmt.Sprintln(args...), "\r\n"))
}

func (l *LevelLogger) Printf(message string, args ...interface{}) { l.log(LevelInfo, message, args...) }

// At returns a Logger view of this logger that writes at the given level.
func (l *LevelLogger) At(level Level) Logger {
	return levelView{owner: l, level: level}
}

// LogAPICall records one HTTP exchange. A zero status or elapsed time is omitted, which is how
// an attempt that never got a response is shown.
func (l *LevelLogger) LogAPICall(method, url string, status int, elapsed time.Duration) {
	l.Infof("%s", FormatAPICall(method, url, status, elapsed))
}

// LogScenarioStatus records the outcome of a scenario or step.
func (l *LevelLogger) LogScenarioStatus(name string, status StepStatus) {
	l.Infof("%s %s", status, name)
}

// FormatAPICall renders the line used by LogAPICall.
func FormatAPICall(method, url string, status int, elapsed time.Duration) string {
	var b strings.Builder
	b.WriteString("API ")
	b.WriteString(strings.ToUpper(method))
	b.WriteString(" ")
	b.WriteString(url)
	if status != 0 {
		fmt.Fprintf(&b, " - %d", status)
	}
	if elapsed > 0 {
		fmt.Fprintf(&b, " (%dms)", elapsed.Milliseconds())
	}
	return b.String()
}

func (l *LevelLogger) log(level Level, message string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	tag := levelColors[level].Sprintf("[%s]", level)
	line := fmt.Sprintf("%s %s - %s\n", tag, l.now().UTC().Format(levelTimestampFormat), fmt.Sprintf(message, args...))
	l.lock.Lock()
	_, _ = io.WriteString(l.out, line)
	l.lock.Unlock()
}

type levelView struct {
	owner *LevelLogger
	level Level
}

func (v levelView) Println(args ...interface{}) {
	v.owner.log(v.level, "%s", strings.TrimRight(fmt.Sprintln(args...), "\r\n"))
}

func (v levelView) Printf(message string, args ...interface{}) {
	v.owner.log(v.level, message, args...)
}
