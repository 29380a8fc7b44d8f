package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is a session file logger for trading activity. Entries are mirrored
// to stderr so the operator sees them live.
type Logger struct {
	session string
	logFile *os.File
	file    *log.Logger
	console *log.Logger
	mu      sync.Mutex
	logDir  string
}

// LogLevel tags log entries by kind.
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelTrade   LogLevel = "TRADE"
	LogLevelStatus  LogLevel = "STATUS"
)

// New creates a session logger writing to logs/<session>_<date>.log.
func New(session string) (*Logger, error) {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s.log", session, timestamp)
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		session: session,
		logFile: file,
		file:    log.New(file, "", 0),
		console: log.New(os.Stderr, "", 0),
		logDir:  logDir,
	}

	l.writeSessionHeader()
	return l, nil
}

// NewNop returns a logger that discards all output, used by tests.
func NewNop() *Logger {
	return &Logger{
		session: "test",
		file:    log.New(io.Discard, "", 0),
		console: log.New(io.Discard, "", 0),
	}
}

func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
TRADING SESSION STARTED
================================================================================
Session: %s
Started: %s
================================================================================`,
		l.session, time.Now().Format("2006-01-02 15:04:05"))

	l.file.Print(header)
}

// Log writes a formatted entry with the given level.
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	entry := fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)

	l.file.Println(entry)
	l.console.Println(entry)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message.
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Trade logs a trading action.
func (l *Logger) Trade(format string, args ...interface{}) {
	l.Log(LogLevelTrade, format, args...)
}

// Status logs market phase information.
func (l *Logger) Status(format string, args ...interface{}) {
	l.Log(LogLevelStatus, format, args...)
}

// LogOrderExecution logs an executed entry order.
func (l *Logger) LogOrderExecution(symbol, orderID, side string, requestedQty, filledQty int64, price float64) {
	l.Trade("%s %s order %s: requested %d, filled %d @ $%.2f",
		symbol, side, orderID, requestedQty, filledQty, price)
}

// LogError logs an error with context.
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// Close writes the session footer and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		footer := fmt.Sprintf(`
================================================================================
TRADING SESSION ENDED
================================================================================
Ended: %s
================================================================================
`, time.Now().Format("2006-01-02 15:04:05"))
		l.file.Print(footer)

		return l.logFile.Close()
	}
	return nil
}

// Path returns the current log file path.
func (l *Logger) Path() string {
	timestamp := time.Now().Format("2006-01-02")
	return filepath.Join(l.logDir, fmt.Sprintf("%s_%s.log", l.session, timestamp))
}
