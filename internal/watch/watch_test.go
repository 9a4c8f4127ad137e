package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/leekcheck/internal/checker"
)

const fixtureAddress = "kwke2hntvyfqm7dr"

func fixtureKey(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", fixtureAddress+".onion.key"))
	require.NoError(t, err)
	return raw
}

type collector struct {
	mu      sync.Mutex
	results []checker.Result
}

func (c *collector) handle(r checker.Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

func (c *collector) snapshot() []checker.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]checker.Result(nil), c.results...)
}

func startWatcher(t *testing.T, config Config, c *collector) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	w := New(config, c.handle, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
}

func TestWatcherChecksNewFiles(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}
	startWatcher(t, Config{Dir: dir, Debounce: 50 * time.Millisecond}, c)

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	key := fixtureKey(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fixtureAddress+".onion.key"), key, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aaaaaaaaaaaaaaaa.onion.key"), key, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	require.Eventually(t, func() bool {
		return len(c.snapshot()) == 2
	}, 5*time.Second, 20*time.Millisecond)

	byClaim := map[string]checker.Status{}
	for _, r := range c.snapshot() {
		byClaim[r.Claimed] = r.Status
	}
	assert.Equal(t, checker.StatusOK, byClaim[fixtureAddress])
	assert.Equal(t, checker.StatusMismatch, byClaim["aaaaaaaaaaaaaaaa"])
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}
	startWatcher(t, Config{Dir: dir, Debounce: 300 * time.Millisecond}, c)
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, fixtureAddress+".onion.key")
	key := fixtureKey(t)

	f, err := os.Create(path)
	require.NoError(t, err)
	half := len(key) / 2
	_, err = f.Write(key[:half])
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	time.Sleep(50 * time.Millisecond)
	_, err = f.Write(key[half:])
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool {
		return len(c.snapshot()) >= 1
	}, 5*time.Second, 20*time.Millisecond)

	// No further checks once the file is quiet.
	time.Sleep(500 * time.Millisecond)
	results := c.snapshot()
	require.Len(t, results, 1)
	assert.Equal(t, checker.StatusOK, results[0].Status)
}

func TestWatcherExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fixtureAddress+".onion.key"), fixtureKey(t), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zzzzzzzzzzzzzzzz.onion.key"), []byte("broken"), 0o600))

	c := &collector{}
	startWatcher(t, Config{Dir: dir, Existing: true}, c)

	require.Eventually(t, func() bool {
		return len(c.snapshot()) == 2
	}, 5*time.Second, 20*time.Millisecond)

	results := c.snapshot()
	assert.Equal(t, checker.StatusOK, results[0].Status)
	assert.Equal(t, checker.StatusError, results[1].Status)
}

func TestWatcherSerializesHandler(t *testing.T) {
	dir := t.TempDir()
	key := fixtureKey(t)

	const files = 6
	var inFlight, overlaps atomic.Int32
	var count int // touched only inside the handler
	done := make(chan struct{})

	logger, _ := test.NewNullLogger()
	w := New(Config{Dir: dir, Debounce: 50 * time.Millisecond}, func(checker.Result) {
		if inFlight.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(20 * time.Millisecond)
		count++
		if count == files {
			close(done)
		}
		inFlight.Add(-1)
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() {
		stopped <- w.Run(ctx)
	}()
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < files; i++ {
		name := string(rune('a'+i)) + "aaaaaaaaaaaaaaa.onion.key"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), key, 0o600))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("not every file was checked")
	}
	cancel()
	require.NoError(t, <-stopped)

	assert.Zero(t, overlaps.Load(), "handler calls overlapped")
}

func TestWatcherMissingDirectory(t *testing.T) {
	logger, _ := test.NewNullLogger()
	w := New(Config{Dir: filepath.Join(t.TempDir(), "missing")}, nil, logger)
	assert.Error(t, w.Run(context.Background()))
}

func TestNewDefaults(t *testing.T) {
	w := New(Config{Dir: "."}, nil, nil)
	assert.Equal(t, ".onion.key", w.config.Suffix)
	assert.Equal(t, DefaultDebounce, w.config.Debounce)
	assert.True(t, w.matches("/tmp/abc.onion.key"))
	assert.False(t, w.matches("/tmp/abc.onion.key.tmp"))
}
