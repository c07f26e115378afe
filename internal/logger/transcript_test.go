package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogConversationMessage(t *testing.T) {
	dir := t.TempDir()
	SetTranscriptDir(dir)
	t.Cleanup(func() { SetTranscriptDir("") })

	LogConversationMessage("chat:1", "user", "what's the weather?")
	LogConversationMessage("chat:1", "assistant", "line one\nline two")
	CloseAllTranscripts()

	path := filepath.Join(dir, "chat-1", time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Regexp(t, `^\[\d\d:\d\d:\d\d\] <user> what's the weather\?\n`+
		`\[\d\d:\d\d:\d\d\] <assistant> line one\n    line two\n$`, string(data))
}

func TestTranscriptsDisabled(t *testing.T) {
	SetTranscriptDir("")
	LogConversationMessage("chat", "user", "dropped")
	assert.Empty(t, transcripts.logFiles)
}
