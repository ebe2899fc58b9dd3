package filtering

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"hnblacklist/pkg/rules"
)

type removedLogger struct {
	file *os.File
	mu   sync.Mutex
}

func newRemovedLogger(path string, log *slog.Logger) *removedLogger {
	if path == "" {
		return nil
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path provided via config.
	if err != nil {
		if log == nil {
			slog.Default().Error("failed to open removed log file", "error", err)
		} else {
			log.Error("failed to open removed log file", "error", err)
		}
		return nil
	}
	return &removedLogger{file: file}
}

func (b *removedLogger) Log(r rules.Rule, row Row) {
	if b == nil || b.file == nil {
		return
	}
	line := fmt.Sprintf("%s kind=%s rule=%q rank=%d source=%q submitter=%q title=%q\n",
		time.Now().UTC().Format(time.RFC3339),
		r.Kind,
		r.Raw,
		row.Rank,
		row.Source,
		row.Submitter,
		row.Title,
	)
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = b.file.WriteString(line)
}

func (b *removedLogger) Close() error {
	if b == nil || b.file == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
