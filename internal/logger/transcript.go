package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// transcriptLogger keeps one daily log file per conversation session.
type transcriptLogger struct {
	baseDir     string
	logFiles    map[string]*os.File
	mutex       sync.Mutex
	currentDate string
}

var transcripts = &transcriptLogger{
	logFiles:    make(map[string]*os.File),
	currentDate: time.Now().Format("2006-01-02"),
}

// SetTranscriptDir enables conversation transcripts under dir.
// An empty dir disables them.
func SetTranscriptDir(dir string) {
	transcripts.mutex.Lock()
	defer transcripts.mutex.Unlock()

	transcripts.closeAll()
	transcripts.baseDir = dir
}

// getLogFilePath returns the path for a session's transcript on the given date
func (tl *transcriptLogger) getLogFilePath(session string, date string) string {
	dirPath := filepath.Join(tl.baseDir, sanitizeFilename(session))
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		Errorf("Failed to create directory for transcripts: %v", err)
		return ""
	}

	return filepath.Join(dirPath, fmt.Sprintf("%s.log", date))
}

// sanitizeFilename removes characters that are invalid in filenames
func sanitizeFilename(name string) string {
	safeMap := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '\'',
		'<':  '(',
		'>':  ')',
		'|':  '-',
	}

	result := []rune(name)
	for i, char := range result {
		if replacement, found := safeMap[char]; found {
			result[i] = replacement
		}
	}

	return string(result)
}

// getLogWriter returns the open transcript file for a session.
// When the date has changed all open files are closed and reopened lazily.
func (tl *transcriptLogger) getLogWriter(session string) *os.File {
	if tl.baseDir == "" {
		return nil
	}

	currentDate := time.Now().Format("2006-01-02")
	if currentDate != tl.currentDate {
		tl.closeAll()
		tl.currentDate = currentDate
	}

	if file, exists := tl.logFiles[session]; exists {
		return file
	}

	logPath := tl.getLogFilePath(session, currentDate)
	if logPath == "" {
		return nil
	}

	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		Errorf("Failed to open transcript file %s: %v", logPath, err)
		return nil
	}

	tl.logFiles[session] = file
	return file
}

func (tl *transcriptLogger) closeAll() {
	for key, file := range tl.logFiles {
		file.Close()
		delete(tl.logFiles, key)
	}
}

// LogConversationMessage appends one message of a session to its transcript.
func LogConversationMessage(session, role, message string) {
	transcripts.mutex.Lock()
	defer transcripts.mutex.Unlock()

	writer := transcripts.getLogWriter(session)
	if writer == nil {
		return
	}

	timestamp := time.Now().Format("15:04:05")
	message = strings.ReplaceAll(message, "\n", "\n    ")
	logEntry := fmt.Sprintf("[%s] <%s> %s\n", timestamp, role, message)

	if _, err := writer.WriteString(logEntry); err != nil {
		Errorf("Failed to write transcript: %v", err)
	}
}

// CloseAllTranscripts closes all open transcript files
func CloseAllTranscripts() {
	transcripts.mutex.Lock()
	defer transcripts.mutex.Unlock()

	transcripts.closeAll()
}
