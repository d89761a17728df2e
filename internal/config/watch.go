package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/logging"
)

// Watch reloads the configuration whenever its file changes and calls
// onReload with the fresh Config. It blocks until ctx is cancelled, so run
// it on its own goroutine. Watching is best-effort: a config that came
// entirely from defaults or env vars has no file to watch.
func Watch(ctx context.Context, cfg *Config, log *logging.Logger, onReload func(*Config)) error {
	if log == nil {
		log = logging.StdLogger()
	}

	file := cfg.Viper.ConfigFileUsed()
	if file == "" {
		log.Debug(ctx, "no config file in use, skipping watch")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which would drop
	// a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(file) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			fresh, err := LoadConfig(file)
			if err != nil {
				log.Warn(ctx, "config reload failed, keeping previous", "error", err)
				continue
			}
			log.Info(ctx, "configuration reloaded", "file", file)
			onReload(fresh)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, "config watcher error", "error", err)
		}
	}
}
