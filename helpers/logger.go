package helpers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sjsage522/catalogworker/logger"
)

// FailureLogger records failures an operator should look at after a run
type FailureLogger interface {
	LogError(scope string, err error)
	LogInfo(format string, args ...interface{})
}

// FailureLog appends failures to a plain text file, one line per failure
type FailureLog struct {
	mu        sync.Mutex
	errorFile string
}

// NewFailureLog creates a new failure log writing to errorFile
func NewFailureLog(errorFile string) *FailureLog {
	return &FailureLog{
		errorFile: errorFile,
	}
}

// LogError logs an error to the file with its scope and a timestamp
func (l *FailureLog) LogError(scope string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		logger.Error("failed to open failure log %s: %v", l.errorFile, fileErr)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, scope, err.Error())
}

// LogInfo logs an informational message
func (l *FailureLog) LogInfo(format string, args ...interface{}) {
	logger.Info(format, args...)
}
