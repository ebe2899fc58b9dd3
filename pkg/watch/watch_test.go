package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCallsFnAfterWrite(t *testing.T) {
	dir := t.TempDir()
	rulesFile := filepath.Join(dir, "rules.txt")
	other := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(rulesFile, []byte("title:go\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, []string{rulesFile}, Options{
			Debounce: 20 * time.Millisecond,
			Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		}, func(context.Context) error {
			calls <- struct{}{}
			return nil
		})
	}()

	// Give the watcher time to register before changing files.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o600))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(rulesFile, []byte("title:rust\n"), 0o600))
	}

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("fn was not called after the rules file changed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunNeedsPaths(t *testing.T) {
	err := Run(context.Background(), nil, Options{}, func(context.Context) error { return nil })
	assert.Error(t, err)
}
