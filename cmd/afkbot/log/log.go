package log

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu         sync.Mutex
	logFile    *os.File
	fileWriter *bufio.Writer
)

type flushWriter struct{}

func (flushWriter) Write(p []byte) (int, error) {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter == nil {
		return len(p), nil
	}
	return fileWriter.Write(p)
}

// NewLogger logs to stdout and to a new file in logDir. The file name includes name, when given, and the
// current time.
func NewLogger(debug bool, logDir, name string) (*slog.Logger, error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("error creating log directory: %w", err)
	}

	fileName := "afkbot-log-" + time.Now().Format("2006-01-02-15-04-05") + ".txt"
	if name != "" {
		fileName = "afkbot-" + name + "-log-" + time.Now().Format("2006-01-02-15-04-05") + ".txt"
	}

	f, err := os.OpenFile(filepath.Join(logDir, fileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	mu.Lock()
	if fileWriter != nil {
		fileWriter.Flush()
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	fileWriter = bufio.NewWriterSize(f, 64*1024)
	mu.Unlock()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.TimeOnly))
			}
			return a
		},
	}

	return slog.New(slog.NewTextHandler(io.MultiWriter(os.Stdout, flushWriter{}), opts)), nil
}

func FlushLog() {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter != nil {
		fileWriter.Flush()
	}
}

func FlushAndClose() {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter != nil {
		fileWriter.Flush()
		fileWriter = nil
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
