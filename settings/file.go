package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Format is a settings file encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

const watchDebounce = 100 * time.Millisecond

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// FileStore keeps settings in a single file.
type FileStore struct {
	path   string
	format Format
	logger *slog.Logger

	mu sync.Mutex // serializes Save
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) FileOption {
	return func(f *FileStore) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFileStore creates a store for path. The format follows the extension.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f := &FileStore{
		path:   path,
		format: format,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Path returns the settings file path.
func (f *FileStore) Path() string {
	return f.path
}

// Format returns the file encoding.
func (f *FileStore) Format() Format {
	return f.format
}

// Load reads the settings file. A missing file yields Defaults().
func (f *FileStore) Load(ctx context.Context) (*Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	s := Defaults()
	if err := decode(f.format, data, s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", f.format, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings file %s: %w", f.path, err)
	}
	return s, nil
}

// Save validates s and replaces the file atomically. The file is created
// with owner-only permissions since profiles hold API keys.
func (f *FileStore) Save(ctx context.Context, s *Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	data, err := encode(f.format, s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod settings file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}

	f.logger.Debug("settings saved", slog.String("path", f.path), slog.String("format", string(f.format)))
	return nil
}

// Watch reloads the file whenever it changes and sends the result on the
// returned channel. Edits that fail to parse are logged and skipped. The
// channel is closed when ctx is cancelled.
func (f *FileStore) Watch(ctx context.Context) (<-chan *Settings, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory; atomic saves replace the file's inode.
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("create settings directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	ch := make(chan *Settings, 1)
	go f.watchLoop(ctx, watcher, ch)
	return ch, nil
}

func (f *FileStore) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, ch chan<- *Settings) {
	defer close(ch)
	defer watcher.Close()

	base := filepath.Base(f.path)
	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			debounce = time.After(watchDebounce)

		case <-debounce:
			debounce = nil
			s, err := f.Load(ctx)
			if err != nil {
				f.logger.Warn("settings reload failed", slog.String("path", f.path), slog.Any("error", err))
				continue
			}
			select {
			case ch <- s:
			case <-ctx.Done():
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("settings watcher error", slog.Any("error", err))
		}
	}
}

func decode(format Format, data []byte, s *Settings) error {
	switch format {
	case FormatYAML:
		return yaml.Unmarshal(data, s)
	case FormatTOML:
		return toml.Unmarshal(data, s)
	case FormatJSON:
		return json.Unmarshal(data, s)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func encode(format Format, s *Settings) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(s); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(s, "", "  ")
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}
