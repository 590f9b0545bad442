package watcher

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadSettle is how long the watcher waits after the first write
// event before reloading, coalescing the burst a multi-file save or an
// atomic rename produces.
const reloadSettle = 100 * time.Millisecond

// WatchTable watches a campaign directory and calls reload after edits
// settle. Watching the directory rather than individual files catches
// atomic renames: tools that write a temp file and rename it create a
// new inode, so a file-level watch misses the replacement.
//
// A reload error is logged and skipped: the file may be mid-write, and
// the event from the completed write will retry. WatchTable blocks
// until ctx is cancelled.
func WatchTable(ctx context.Context, dir string, log *slog.Logger, reload func() error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return err
	}

	debounce := NewDebouncer(reloadSettle)
	defer debounce.Cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevantChange(ev) {
				continue
			}
			debounce.Trigger(func() {
				if err := reload(); err != nil {
					log.Warn("table reload skipped", "path", ev.Name, "error", err)
				}
			})
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("table watcher error", "error", err)
		}
	}
}

// relevantChange filters watcher noise: only writes, creates, and
// renames of YAML files matter.
func relevantChange(ev fsnotify.Event) bool {
	if !strings.HasSuffix(ev.Name, ".yaml") && !strings.HasSuffix(ev.Name, ".yml") {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename)
}
