package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/syssam/relmap/internal/gen"
)

// watch regenerates schema files whenever a Go source in one of the matched
// package directories changes. It returns when ctx is canceled.
func watch(ctx context.Context, g *gen.Generator, patterns []string, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("can't create watcher: %w", err)
	}
	defer w.Close()

	if err := addDirs(ctx, w, g, patterns); err != nil {
		return err
	}
	log.Printf("[INFO] watching %d package(s)", len(w.WatchList()))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, g.Config().Output) {
				continue
			}
			log.Printf("[DEBUG] %s %s", ev.Op, ev.Name)
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WARN] watcher error: %v", err)
		case <-fire:
			fire = nil
			if err := generate(ctx, g, patterns); err != nil {
				log.Printf("[WARN] %v", err)
				continue
			}
			// packages may have been added since the last run
			if err := addDirs(ctx, w, g, patterns); err != nil {
				log.Printf("[WARN] %v", err)
			}
		}
	}
}

func addDirs(ctx context.Context, w *fsnotify.Watcher, g *gen.Generator, patterns []string) error {
	dirs, err := g.Dirs(ctx, patterns...)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("can't watch %s: %w", dir, err)
		}
	}
	return nil
}

// relevant reports whether ev touches a non-generated, non-test Go file.
func relevant(ev fsnotify.Event, output string) bool {
	name := filepath.Base(ev.Name)
	if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || name == output {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
