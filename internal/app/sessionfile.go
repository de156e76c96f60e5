package app

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mandalnilabja/grokway/internal/catalog"
	"github.com/mandalnilabja/grokway/internal/pool"
)

// CredentialAdder receives sessions found in the session file.
type CredentialAdder interface {
	Add(credential string, excludeTiers ...catalog.Tier)
}

// SessionFile feeds sessions listed in a file, one per line, into the pool.
// Blank lines and lines starting with '#' are ignored. Sessions already
// added are not added again, so removing one through the API sticks until
// the file names a new one.
type SessionFile struct {
	path   string
	pool   CredentialAdder
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]bool
}

// NewSessionFile creates a loader for path.
func NewSessionFile(path string, p CredentialAdder, logger *slog.Logger) *SessionFile {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionFile{
		path:   filepath.Clean(path),
		pool:   p,
		logger: logger.With("component", "sessionfile"),
		seen:   make(map[string]bool),
	}
}

// Load reads the file and adds sessions not seen before. It returns how
// many were added.
func (f *SessionFile) Load() (int, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return 0, fmt.Errorf("open session file: %w", err)
	}
	defer file.Close()

	f.mu.Lock()
	defer f.mu.Unlock()

	added := 0
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || f.seen[line] {
			continue
		}
		f.seen[line] = true
		cred := pool.BuildCredential(line)
		f.pool.Add(cred)
		f.logger.Info("session added from file", "credential", pool.MaskCredential(cred))
		added++
	}
	if err := sc.Err(); err != nil {
		return added, fmt.Errorf("read session file: %w", err)
	}
	return added, nil
}

// Watch reloads the file whenever it is written or replaced, until ctx is
// done. The parent directory is watched so editors that save by rename are
// picked up.
func (f *SessionFile) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}
	f.logger.Info("watching session file", "path", f.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if _, err := f.Load(); err != nil {
				f.logger.Error("failed to reload session file", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Error("file watcher error", "error", err)
		}
	}
}
