package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/config"
	gap "github.com/muesli/go-app-paths"
)

var logFile io.Writer = io.Discard

func getLogFilePath(now time.Time) (string, error) {
	scope := gap.NewScope(gap.User, config.AppName)
	return scope.LogPath(now.Format("2006-01-02") + ".log")
}

// setupLog routes logging to the daily log file. The shell keeps stderr
// clean; CLI commands add it back with logToStderr.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	path, err := getLogFilePath(time.Now())
	if err != nil {
		return nil, fmt.Errorf("unable to determine log path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}

	logFile = f
	log.SetOutput(f)
	log.SetReportTimestamp(true)
	return f.Close, nil
}

func logToStderr() {
	log.SetOutput(io.MultiWriter(logFile, os.Stderr))
}
