package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NoError(t, watcher.AddPath(t.TempDir()))
	assert.Error(t, watcher.AddPath("/non/existent/path"))
	assert.Error(t, watcher.AddPath("  "))
}

func TestFileWatcherAddRecursive(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pages", "drafts"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0o755))

	require.NoError(t, watcher.AddRecursive(root))
	list := watcher.watcher.WatchList()
	assert.Contains(t, list, filepath.Join(root, "pages", "drafts"))
	assert.NotContains(t, list, filepath.Join(root, ".git", "objects"))
}

func collect(w *FileWatcher) func() []ChangeEvent {
	var mu sync.Mutex
	var got []ChangeEvent
	w.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		got = append(got, events...)
		mu.Unlock()
		return nil
	})
	return func() []ChangeEvent {
		mu.Lock()
		defer mu.Unlock()
		return append([]ChangeEvent(nil), got...)
	}
}

func TestWatchFileReportsOnlyThatFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "page.json")
	other := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(target, []byte(`{}`), 0o644))

	watcher, err := NewFileWatcher(30*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	abs, err := watcher.WatchFile(target)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))
	events := collect(watcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(target, []byte(`{"a":1}`), 0o644))

	assert.Eventually(t, func() bool { return len(events()) > 0 }, 2*time.Second, 20*time.Millisecond)
	for _, e := range events() {
		assert.Equal(t, abs, e.Path)
	}
}

func TestWatchFileSurvivesAtomicSave(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "page.json")
	require.NoError(t, os.WriteFile(target, []byte(`{}`), 0o644))

	watcher, err := NewFileWatcher(30*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()
	_, err = watcher.WatchFile(target)
	require.NoError(t, err)
	events := collect(watcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 2; i++ {
		tmp := filepath.Join(dir, ".page.json.tmp")
		require.NoError(t, os.WriteFile(tmp, []byte(`{"v":1}`), 0o644))
		require.NoError(t, os.Rename(tmp, target))
		n := i
		assert.Eventually(t, func() bool { return len(events()) > n }, 2*time.Second, 20*time.Millisecond)
	}
}

func TestFilters(t *testing.T) {
	testCases := []struct {
		name   string
		filter FileFilter
		path   string
		want   bool
	}{
		{"json", JSONFilter, "page.json", true},
		{"json upper", JSONFilter, "PAGE.JSON", true},
		{"json other", JSONFilter, "page.html", false},
		{"temp hidden", NoTempFilter, "dir/.page.json.tmp", false},
		{"temp backup", NoTempFilter, "page.json~", false},
		{"temp swap", NoTempFilter, "page.json.swp", false},
		{"temp plain", NoTempFilter, "dir/page.json", true},
		{"git root", NoGitFilter, ".git/config", false},
		{"git nested", NoGitFilter, "src/.git/HEAD", false},
		{"git plain", NoGitFilter, "src/page.json", true},
		{"path match", PathFilter("/a/b.json"), "/a/./b.json", true},
		{"path other", PathFilter("/a/b.json"), "/a/c.json", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter(tc.path))
		})
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	d := newDebouncer(40 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.start(ctx)

	d.events <- ChangeEvent{Type: EventTypeCreated, Path: "b.json"}
	d.events <- ChangeEvent{Type: EventTypeModified, Path: "a.json"}
	d.events <- ChangeEvent{Type: EventTypeModified, Path: "b.json"}

	select {
	case events := <-d.output:
		require.Len(t, events, 2)
		assert.Equal(t, "a.json", events[0].Path)
		assert.Equal(t, "b.json", events[1].Path)
		assert.Equal(t, EventTypeModified, events[1].Type)
	case <-time.After(time.Second):
		t.Fatal("debouncer did not flush")
	}

	select {
	case events := <-d.output:
		t.Fatalf("unexpected second batch: %v", events)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerStopCancelsPendingFlush(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)
	d.addEvent(ChangeEvent{Path: "a.json"})
	d.stop()

	select {
	case <-d.output:
		t.Fatal("flush ran after stop")
	case <-time.After(100 * time.Millisecond):
	}
}
