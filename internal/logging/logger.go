package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const filePrefix = "buddy-"

// Logger writes category-tagged structured log lines to a daily file
// (buddy-YYYY-MM-DD.log) under a logs directory. Assistant-facing events
// carry an extra "event" field so they can be grepped apart from plumbing.
type Logger struct {
	dir  string
	path string
	file *os.File
	zl   *zap.Logger
}

// DefaultDir returns the default logs directory: ~/.buddy/logs
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".buddy", "logs"), nil
}

// New creates a Logger writing to dir. The directory is created when missing.
// Set BUDDY_DEBUG to also echo log lines to stderr.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}

	path := filepath.Join(dir, filePrefix+time.Now().Format("2006-01-02")+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	enc := zapcore.NewConsoleEncoder(encoderConfig())
	core := zapcore.NewCore(enc, zapcore.AddSync(f), zap.DebugLevel)
	if os.Getenv("BUDDY_DEBUG") != "" {
		console := zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), zap.DebugLevel)
		core = zapcore.NewTee(core, console)
	}

	return &Logger{
		dir:  dir,
		path: path,
		file: f,
		zl:   zap.New(core),
	}, nil
}

// Nop returns a Logger that discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	l.zl.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) Debug(category, msg string, fields ...zap.Field) {
	l.zl.Debug(msg, withCategory(category, fields)...)
}

func (l *Logger) Info(category, msg string, fields ...zap.Field) {
	l.zl.Info(msg, withCategory(category, fields)...)
}

func (l *Logger) Warn(category, msg string, fields ...zap.Field) {
	l.zl.Warn(msg, withCategory(category, fields)...)
}

func (l *Logger) Error(category, msg string, fields ...zap.Field) {
	l.zl.Error(msg, withCategory(category, fields)...)
}

// Event logs an assistant-facing event (insight discovered, pattern found,
// entry tracked). These were a dedicated log level in earlier iterations;
// now they are Info lines tagged event=buddy.
func (l *Logger) Event(category, msg string, fields ...zap.Field) {
	fields = append(fields, zap.String("event", "buddy"))
	l.zl.Info(msg, withCategory(category, fields)...)
}

func (l *Logger) Interaction(action string, fields ...zap.Field) {
	l.Event("INTERACTION", action, fields...)
}

func (l *Logger) Suggestion(suggestion string, accepted bool) {
	l.Event("SUGGESTION", suggestion, zap.Bool("accepted", accepted))
}

func (l *Logger) Pattern(pattern string, fields ...zap.Field) {
	l.Event("PATTERN", pattern, fields...)
}

func (l *Logger) Learning(learning, source string) {
	l.Event("LEARNING", learning, zap.String("source", source))
}

func withCategory(category string, fields []zap.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	out = append(out, zap.String("category", category))
	return append(out, fields...)
}

// RecentLines returns the last n lines of today's log file.
func (l *Logger) RecentLines(n int) []string {
	if l.path == "" {
		return nil
	}
	l.zl.Sync()
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// LogsForDate returns the raw log contents for a YYYY-MM-DD date, or "".
func (l *Logger) LogsForDate(date string) string {
	if l.dir == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(l.dir, filePrefix+date+".log"))
	if err != nil {
		return ""
	}
	return string(data)
}

// CleanOld removes log files older than keepDays.
func (l *Logger) CleanOld(keepDays int) error {
	if l.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("read logs dir: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -keepDays)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(l.dir, name)); err != nil {
				l.Error("CLEANUP", "failed to delete old log file", zap.String("file", name), zap.Error(err))
				continue
			}
			l.Info("CLEANUP", "deleted old log file", zap.String("file", name))
		}
	}
	return nil
}
