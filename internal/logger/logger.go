package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
)

type LogLevel string

const (
	LevelInfo    LogLevel = "INFO"
	LevelSuccess LogLevel = "SUCCESS"
	LevelWarning LogLevel = "WARNING"
	LevelError   LogLevel = "ERROR"
	LevelDebug   LogLevel = "DEBUG"
)

var (
	mu sync.Mutex

	// Console output goes to stderr, stdout belongs to the conversation
	output io.Writer = os.Stderr
	debug  bool

	errorLogger  *stdlog.Logger
	errorLogFile *os.File

	// Separate AI logger that doesn't write to the error log
	aiLogger  *stdlog.Logger
	aiLogFile *os.File
)

// Init opens error.log and ai.log inside dir. An empty dir keeps logging
// console-only. Debug lines are printed to the console only when debugMode is set.
func Init(dir string, debugMode bool) error {
	mu.Lock()
	defer mu.Unlock()

	debug = debugMode
	if dir == "" {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	var err error
	errorLogFile, err = os.OpenFile(filepath.Join(dir, "error.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open error log file: %w", err)
	}
	errorLogger = stdlog.New(errorLogFile, "", 0)

	aiLogFile, err = os.OpenFile(filepath.Join(dir, "ai.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open AI log file: %w", err)
	}
	aiLogger = stdlog.New(aiLogFile, "", 0)

	return nil
}

// SetOutput redirects console output. Tests use it to silence or capture logs.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// DebugEnabled reports whether debug lines reach the console.
func DebugEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return debug
}

// CloseLogFile should be called during shutdown to properly close all log files
func CloseLogFile() {
	mu.Lock()
	defer mu.Unlock()

	if errorLogFile != nil {
		errorLogFile.Close()
		errorLogFile = nil
		errorLogger = nil
	}

	if aiLogFile != nil {
		aiLogFile.Close()
		aiLogFile = nil
		aiLogger = nil
	}
}

var colorMap = map[string]func(a ...interface{}) string{
	string(LevelInfo):    color.New(color.FgBlue).SprintFunc(),
	string(LevelSuccess): color.New(color.FgGreen).SprintFunc(),
	string(LevelWarning): color.New(color.FgYellow).SprintFunc(),
	string(LevelError):   color.New(color.FgRed).SprintFunc(),
	string(LevelDebug):   color.New(color.FgCyan).SprintFunc(),

	"blue":    color.New(color.FgBlue).SprintFunc(),
	"green":   color.New(color.FgGreen).SprintFunc(),
	"yellow":  color.New(color.FgYellow).SprintFunc(),
	"red":     color.New(color.FgRed).SprintFunc(),
	"cyan":    color.New(color.FgCyan).SprintFunc(),
	"magenta": color.New(color.FgMagenta).SprintFunc(),
	"white":   color.New(color.FgWhite).SprintFunc(),
	"purple":  color.New(color.FgHiMagenta).SprintFunc(),

	"bright_green":  color.New(color.FgHiGreen).SprintFunc(),
	"bright_yellow": color.New(color.FgHiYellow).SprintFunc(),
	"bright_black":  color.New(color.FgHiBlack).SprintFunc(),
}

func GetColorFunc(colorName string) func(a ...interface{}) string {
	if fn, ok := colorMap[colorName]; ok {
		return fn
	}
	return colorMap["white"]
}

func logMessage(level LogLevel, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	mu.Lock()
	defer mu.Unlock()

	if level != LevelDebug || debug {
		colorFunc := GetColorFunc(string(level))
		fmt.Fprintln(output, colorFunc(fmt.Sprintf("[%s] ", level))+message)
	}

	// Only errors and warnings go to error.log
	if level == LevelError || level == LevelWarning {
		if errorLogger != nil {
			errorLogger.Printf("[%s] %s: %s", level, timestamp, message)
		}
	}
}

func Infof(format string, args ...interface{}) {
	logMessage(LevelInfo, format, args...)
}

func Successf(format string, args ...interface{}) {
	logMessage(LevelSuccess, format, args...)
}

func Warnf(format string, args ...interface{}) {
	logMessage(LevelWarning, format, args...)
}

func Errorf(format string, args ...interface{}) {
	logMessage(LevelError, format, args...)
}

func Debugf(format string, args ...interface{}) {
	logMessage(LevelDebug, format, args...)
}

// AIDebugf logs model and tool traffic to the AI log file instead of error.log.
// It reaches the console only in debug mode.
func AIDebugf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	mu.Lock()
	defer mu.Unlock()

	if debug {
		colorFunc := GetColorFunc(string(LevelDebug))
		fmt.Fprintln(output, colorFunc("[AI-DEBUG] ")+message)
	}

	if aiLogger != nil {
		aiLogger.Printf("[DEBUG] %s: %s", timestamp, message)
	}
}
