package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/sipeed/modelcompare/pkg/logging"
)

const watchDebounce = 2 * time.Second

func newWatchCommand() *cobra.Command {
	var question string
	var files []string

	cmd := &cobra.Command{
		Use:   "watch [workspace]",
		Short: "Re-run the comparison whenever a workspace file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), args[0], question, files)
		},
	}
	cmd.Flags().StringVar(&question, "question", "", "question to re-dispatch on every change")
	cmd.Flags().StringSliceVar(&files, "file", nil, "explicit workspace-relative file to include in the context pack")
	return cmd
}

// runWatch debounces filesystem events with a single reset timer: a settled
// burst of filesystem events triggers a fresh, independent Compare
// invocation. Each run is self-contained — no mutable state survives across
// invocations; watching only decides *when* to call Compare again, never
// what it carries forward.
func runWatch(ctx context.Context, workspace, question string, files []string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := addRecursive(fsw, workspace); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() {
		out := runCompare(ctx, workspace, question, files)
		_ = json.NewEncoder(os.Stdout).Encode(out)
	}
	run()

	var timer *time.Timer
	timerC := func() <-chan time.Time {
		if timer == nil {
			return nil
		}
		return timer.C
	}
	resetTimer := func() {
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(watchDebounce)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					_ = addRecursive(fsw, ev.Name)
				}
			}
			resetTimer()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warn("watch: filesystem watcher error", "error", err.Error())
		case <-timerC():
			timer = nil
			run()
		}
	}
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
