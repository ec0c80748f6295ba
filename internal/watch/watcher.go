package watch

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"lth-go/internal/hist"
	"lth-go/internal/model"
)

// Capturer receives the content of a changed file. Satisfied by
// hist.HistoryService, which dedupes identical content, so delivering the
// same bytes twice is harmless.
type Capturer interface {
	Capture(path string, content []byte) (bool, error)
}

// sniffLen bounds how much of a file is inspected for NUL bytes when deciding
// whether it is text.
const sniffLen = 8000

// Watcher runs an fsnotify loop over the registered watch roots and feeds
// Write/Create events into the capturer.
type Watcher struct {
	capturer Capturer
	logger   hist.Logger
	ignore   []string
}

// New creates a Watcher. ignore patterns are matched against every path
// segment of an event's path with filepath.Match semantics.
func New(capturer Capturer, logger hist.Logger, ignore []string) *Watcher {
	return &Watcher{capturer: capturer, logger: logger, ignore: ignore}
}

// Run watches the given roots and records a version for every Write/Create
// event on a text file until ctx is cancelled. Directories created while
// watching are added to the watch set, so new subtrees under a recursive root
// are picked up without a restart.
func (w *Watcher) Run(ctx context.Context, roots []*model.WatchRoot) error {
	if len(roots) == 0 {
		return fmt.Errorf("no directories tracked: run `lth track` first")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	for _, root := range roots {
		if err := w.addRoot(fsw, root); err != nil {
			return err
		}
		w.logger.Info("watching", "path", root.Path, "recursive", root.Recursive)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.isIgnored(event.Name) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				// Deleted or replaced between event and stat; nothing to do.
				continue
			}

			// A new directory joins the watch set so edits inside it are seen.
			if info.IsDir() {
				if event.Has(fsnotify.Create) {
					if err := fsw.Add(event.Name); err != nil {
						w.logger.Warn("watching new directory failed", "path", event.Name, "err", err)
					}
				}
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}

			w.captureFile(event.Name)
		}
	}
}

// addRoot registers a root (and, when recursive, its subdirectories) with the
// fsnotify watcher. Ignored directories are skipped wholesale.
func (w *Watcher) addRoot(fsw *fsnotify.Watcher, root *model.WatchRoot) error {
	if !root.Recursive {
		if err := fsw.Add(root.Path); err != nil {
			return fmt.Errorf("watching %s: %w", root.Path, err)
		}
		return nil
	}

	err := filepath.WalkDir(root.Path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root.Path && w.isIgnored(p) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root.Path, err)
	}
	return nil
}

// captureFile reads the changed file and hands it to the capturer. Binary
// files and read failures are logged and skipped; the watch loop never stops
// for a single bad file.
func (w *Watcher) captureFile(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		w.logger.Warn("resolving path failed", "path", path, "err", err)
		return
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		w.logger.Warn("reading changed file failed", "path", abs, "err", err)
		return
	}
	if looksBinary(content) {
		w.logger.Debug("skipping binary file", "path", abs)
		return
	}

	saved, err := w.capturer.Capture(abs, content)
	if err != nil {
		w.logger.Error("capturing version failed", "path", abs, "err", err)
		return
	}
	if saved {
		w.logger.Debug("change captured", "path", abs)
	}
}

// isIgnored reports whether any path segment matches an ignore pattern.
func (w *Watcher) isIgnored(path string) bool {
	for _, segment := range splitSegments(path) {
		for _, pattern := range w.ignore {
			if ok, err := filepath.Match(pattern, segment); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func splitSegments(path string) []string {
	return strings.Split(filepath.ToSlash(path), "/")
}

// looksBinary reports whether content appears to be binary, using the
// NUL-byte convention on a bounded prefix.
func looksBinary(content []byte) bool {
	sniff := content
	if len(sniff) > sniffLen {
		sniff = sniff[:sniffLen]
	}
	return bytes.IndexByte(sniff, 0) != -1
}
