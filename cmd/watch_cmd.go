package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

type WatchParams struct {
	Debounce time.Duration `json:"debounce"` // 合并连续写入的等待时间
}

var watchParams = &WatchParams{}

var watchCmd = &cobra.Command{
	Use:   "watch files...",
	Short: "Re-check documents whenever they change",
	Long: `Check the given files once, then again every time one of them is written
or replaced, until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: watchRun,
}

func init() {
	watchCmd.Flags().DurationVar(&watchParams.Debounce, "debounce", 200*time.Millisecond, "quiet period before a changed file is checked")
	rootCmd.AddCommand(watchCmd)
}

func watchRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, path := range args {
		if err := checkInputExists(path); err != nil {
			return err
		}
	}

	w, err := newFileWatcher(args)
	if err != nil {
		return err
	}

	st := newStyles(cmd.OutOrStdout())
	for _, path := range args {
		checkFile(cmd, st, path)
	}
	return w.run(ctx, watchParams.Debounce, func(path string) {
		checkFile(cmd, st, path)
	})
}

// fileWatcher watches the parent directories of a set of files, so files
// replaced by rename (as many editors save) keep being tracked.
type fileWatcher struct {
	watcher *fsnotify.Watcher
	targets map[string]string // absolute path -> path as given
}

func newFileWatcher(paths []string) (*fileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	fw := &fileWatcher{watcher: watcher, targets: make(map[string]string)}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		fw.targets[abs] = p
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch directory: %w", err)
		}
		dirs[dir] = true
	}
	return fw, nil
}

// run delivers changed files to onChange once no further event for them has
// arrived within delay. It returns when ctx is done.
func (fw *fileWatcher) run(ctx context.Context, delay time.Duration, onChange func(path string)) error {
	defer fw.watcher.Close()

	pending := make(map[string]bool)
	timer := time.NewTimer(delay)
	timer.Stop()

	logger.Info("watching for changes", "files", len(fw.targets))
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping file watcher")
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			path, tracked := fw.targets[abs]
			if !tracked {
				continue
			}

			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				logger.Debug("file changed", "file", path, "op", event.Op.String())
				pending[path] = true
				timer.Reset(delay)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				logger.Warn("file removed", "file", path)
				delete(pending, path)
			}

		case <-timer.C:
			for path := range pending {
				onChange(path)
			}
			clear(pending)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}
