package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/publiccircle/access-gateway/internal/lib/sl"
)

// WatchTokenFile читает токен из файла и обновляет его при каждом изменении
// файла до отмены ctx. Наблюдается каталог: так переживается атомарная
// замена файла через rename.
func (m *Manager) WatchTokenFile(ctx context.Context, path string) error {
	const op = "session.WatchTokenFile"

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := m.reloadToken(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if err := m.reloadToken(path); err != nil {
				m.log.Warn("failed to reload service token", slog.String("file", path), sl.Err(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.log.Warn("token file watcher error", sl.Err(err))
		}
	}
}

func (m *Manager) reloadToken(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return nil
	}
	if token != m.Token() {
		m.log.Info("service token rotated", slog.String("file", path))
	}
	m.SetToken(token)
	return nil
}
