package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/slatehq/slate/internal/logger"
)

// FileWatcher reloads the configuration when the config file changes on disk.
type FileWatcher struct {
	manager *ConfigManager
	watcher *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Debounce rapid successive writes (editors often write twice)
	debounceInterval time.Duration
}

// NewFileWatcher creates a watcher bound to the given config manager.
func NewFileWatcher(manager *ConfigManager) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &FileWatcher{
		manager:          manager,
		watcher:          watcher,
		ctx:              ctx,
		cancel:           cancel,
		debounceInterval: 500 * time.Millisecond,
	}, nil
}

// Start begins watching the config file's directory. Watching the directory
// instead of the file survives rename-and-replace writes.
func (fw *FileWatcher) Start() error {
	path := fw.manager.ConfigPath()
	if path == "" {
		return fmt.Errorf("no config path to watch")
	}

	if err := fw.watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	fw.wg.Add(1)
	go fw.processEvents(path)

	logger.Info("Config file watcher started", logger.String("path", path))
	return nil
}

// Stop stops the watcher.
func (fw *FileWatcher) Stop() error {
	fw.cancel()
	err := fw.watcher.Close()
	fw.wg.Wait()
	return err
}

func (fw *FileWatcher) processEvents(path string) {
	defer fw.wg.Done()

	var timer *time.Timer
	reload := func() {
		if err := fw.manager.LoadConfig(path); err != nil {
			logger.Error("Config reload failed", logger.Err("error", err))
			return
		}
		logger.Info("Configuration reloaded", logger.String("path", path))
	}

	for {
		select {
		case <-fw.ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(fw.debounceInterval, reload)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error", logger.Err("error", err))
		}
	}
}
