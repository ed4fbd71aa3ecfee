package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRunTriggersOnMigrationChange(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	triggered := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, []string{dir}, 20*time.Millisecond, func() error {
			calls.Add(1)
			select {
			case triggered <- struct{}{}:
			default:
			}
			return nil
		}, zaptest.NewLogger(t))
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_users.sql"), []byte("CREATE TABLE users (id INT);"), 0o644))

	select {
	case <-triggered:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not trigger")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestRunWatchesNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "tenant")
	require.NoError(t, os.Mkdir(nested, 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	triggered := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, []string{dir}, 20*time.Millisecond, func() error {
			select {
			case triggered <- struct{}{}:
			default:
			}
			return nil
		}, zaptest.NewLogger(t))
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(nested, "001_accounts.sql"), []byte("CREATE TABLE accounts (id INT);"), 0o644))

	select {
	case <-triggered:
	case <-time.After(5 * time.Second):
		t.Fatal("change in nested directory did not trigger")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestRunFailsForMissingDirectory(t *testing.T) {
	err := Run(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, 0, func() error { return nil }, nil)
	assert.Error(t, err)
}
