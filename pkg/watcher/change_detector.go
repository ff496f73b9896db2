package watcher

import (
	"context"
	"os"
	"time"
)

// ShouldReload reports whether a change leaves a readable snapshot behind.
// A removal with no file in place is skipped; the next write brings it back.
func ShouldReload(event ChangeEvent, path string) bool {
	if event.Type == ChangeTypeWrite {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}

// Watch calls reload after every debounced change to the file at path until
// ctx ends.
func Watch(ctx context.Context, path string, quietPeriod, maxWait time.Duration, reload func(ChangeEvent)) error {
	fw, err := NewFileWatcher(path)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			if !ShouldReload(event, fw.path) {
				log.Info("snapshot removed, waiting for it to return", "path", fw.path)
				continue
			}
			reload(event)
		}
	}()
	return nil
}
