package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a Level, defaulting to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Logger writes categorised, coloured lines to stdout and optionally
// mirrors them, uncoloured, to a file.
type Logger struct {
	mu    sync.Mutex
	level Level
	out   io.Writer
	file  *os.File
	exit  func(int)

	colors map[Level]*color.Color
	tag    *color.Color
}

// NewLogger builds a logger from LOG_LEVEL and LOG_FILE.
func NewLogger() *Logger {
	l := New(ParseLevel(os.Getenv("LOG_LEVEL")), os.Stdout)
	if path := os.Getenv("LOG_FILE"); path != "" {
		if err := l.SetFile(path); err != nil {
			l.Warn("LOGGER", err.Error())
		}
	}
	return l
}

// SetFile mirrors output to path, replacing any previous mirror. An empty
// path turns mirroring off.
func (l *Logger) SetFile(path string) error {
	var f *os.File
	if path != "" {
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open log file %s: %w", path, err)
		}
	}

	l.mu.Lock()
	old := l.file
	l.file = f
	l.mu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}

// New returns a logger writing to out.
func New(level Level, out io.Writer) *Logger {
	return &Logger{
		level: level,
		out:   out,
		exit:  os.Exit,
		colors: map[Level]*color.Color{
			LevelDebug: color.New(color.FgHiBlack),
			LevelInfo:  color.New(color.FgGreen),
			LevelWarn:  color.New(color.FgYellow),
			LevelError: color.New(color.FgRed),
			LevelFatal: color.New(color.FgHiRed, color.Bold),
		},
		tag: color.New(color.FgCyan),
	}
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func (l *Logger) log(level Level, category, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	ts := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(l.out, "%s %s %s %s\n",
		ts,
		l.colors[level].Sprintf("%-5s", level),
		l.tag.Sprintf("[%s]", category),
		message,
	)
	if l.file != nil {
		fmt.Fprintf(l.file, "%s %-5s [%s] %s\n", ts, level, category, message)
	}
}

func (l *Logger) Debug(category, message string) { l.log(LevelDebug, category, message) }
func (l *Logger) Info(category, message string)  { l.log(LevelInfo, category, message) }
func (l *Logger) Warn(category, message string)  { l.log(LevelWarn, category, message) }
func (l *Logger) Error(category, message string) { l.log(LevelError, category, message) }

// Fatal logs and terminates the process.
func (l *Logger) Fatal(category, message string) {
	l.log(LevelFatal, category, message)
	_ = l.Close()
	l.exit(1)
}

func (l *Logger) LogProcess(process, message string) {
	l.Info(process, "⚙️  "+message)
}

func (l *Logger) LogDatabase(operation, database, message string) {
	l.Debug("DATABASE", fmt.Sprintf("%s %s: %s", database, operation, message))
}

func (l *Logger) LogKafka(operation, topic, message string) {
	l.Info("KAFKA", fmt.Sprintf("%s [%s] %s", operation, topic, message))
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.Info("API", fmt.Sprintf("%s %s - %s (%s)", method, path, status, duration))
}

func (l *Logger) LogSecurity(event, message string) {
	l.Warn("SECURITY", fmt.Sprintf("%s: %s", event, message))
}

func (l *Logger) LogRecommend(operation, userID, message string) {
	l.Info("RECOMMEND", fmt.Sprintf("%s user=%s %s", operation, userID, message))
}

func (l *Logger) LogPricing(operation, reference, message string) {
	l.Info("PRICING", fmt.Sprintf("%s %s %s", operation, reference, message))
}
