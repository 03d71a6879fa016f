package roster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/bft-labs/rollcall/internal/domain"
)

// fileDebounceDelay is the delay after a file change before reloading, so a
// burst of write events produces one reload.
const fileDebounceDelay = 100 * time.Millisecond

// fileMember is one roster entry in the TOML file.
type fileMember struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Deactivated bool   `toml:"deactivated"`
}

// fileRoster is the TOML roster file schema:
//
//	[[member]]
//	id = "U0123456789"
//	name = "Ana"
type fileRoster struct {
	Members []fileMember `toml:"member"`
}

// File resolves the roster from a TOML file and reloads it when the file
// changes. A reload that fails keeps the last successfully loaded roster;
// Resolve fails only when no load has ever succeeded.
type File struct {
	path   string
	logger zerolog.Logger

	mu       sync.RWMutex
	members  []domain.Recipient
	loaded   bool
	closed   bool
	debounce *time.Timer
	wg       sync.WaitGroup
}

var _ Provider = (*File)(nil)

// NewFile builds a file provider and performs the initial load. An initial
// load failure is not fatal here: the file may appear later, and Resolve
// reports ErrRosterUnavailable until a load succeeds.
func NewFile(path string, logger zerolog.Logger) *File {
	f := &File{path: path, logger: logger}
	if err := f.reload(); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("initial roster load failed")
	}
	return f
}

// Resolve returns the last successfully loaded roster.
func (f *File) Resolve(context.Context) ([]domain.Recipient, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.loaded {
		return nil, fmt.Errorf("%w: roster file %s not loaded", domain.ErrRosterUnavailable, f.path)
	}
	out := make([]domain.Recipient, len(f.members))
	copy(out, f.members)
	return out, nil
}

// Watch reloads the roster when the file changes, until ctx is cancelled.
// Watching the parent directory survives editors that replace the file.
func (f *File) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	f.wg.Add(1)
	go f.watchLoop(ctx, watcher)
	return nil
}

// Close stops any pending debounced reload and waits for the watch loop and
// in-flight reloads to finish. Call after cancelling the Watch context; no
// reload runs after Close returns.
func (f *File) Close() {
	f.mu.Lock()
	f.closed = true
	if f.debounce != nil && f.debounce.Stop() {
		f.wg.Done()
	}
	f.debounce = nil
	f.mu.Unlock()
	f.wg.Wait()
}

func (f *File) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer f.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(f.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			f.debounceReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.logger.Error().Err(err).Msg("roster watcher error")
		}
	}
}

// debounceReload schedules a reload, replacing any pending one. The timer is
// tracked by f.wg: a cancelled timer's callback never runs, so the
// cancelling side gives its wg slot back.
func (f *File) debounceReload() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	if f.debounce != nil && f.debounce.Stop() {
		f.wg.Done()
	}
	f.wg.Add(1)
	f.debounce = time.AfterFunc(fileDebounceDelay, func() {
		defer f.wg.Done()
		f.mu.RLock()
		closed := f.closed
		f.mu.RUnlock()
		if closed {
			return
		}
		if err := f.reload(); err != nil {
			f.logger.Error().Err(err).Str("path", f.path).Msg("roster reload failed, keeping previous roster")
			return
		}
		f.logger.Info().Str("path", f.path).Msg("roster reloaded")
	})
}

func (f *File) reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read roster: %w", err)
	}
	var parsed fileRoster
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse roster: %w", err)
	}

	members := make([]domain.Recipient, 0, len(parsed.Members))
	for _, m := range parsed.Members {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		members = append(members, domain.Recipient{ID: m.ID, Name: name, Deactivated: m.Deactivated})
	}

	f.mu.Lock()
	f.members = normalize(members)
	f.loaded = true
	f.mu.Unlock()
	return nil
}
