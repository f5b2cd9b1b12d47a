package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lumina-lang/lumina/internal/frontend"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file-or-dir>",
		Short: "Re-run the front end whenever sources change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := frontend.New(cfg)
			if err != nil {
				return err
			}

			target := args[0]
			info, err := os.Stat(target)
			if err != nil {
				return fmt.Errorf("cannot watch %s: %w", target, err)
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer watcher.Close()

			// Watching a file means watching its directory: editors
			// replace files on save, which drops the original watch.
			watchPath := target
			if !info.IsDir() {
				watchPath = filepath.Dir(target)
			}
			if err := watcher.Add(watchPath); err != nil {
				return fmt.Errorf("watching %s: %w", watchPath, err)
			}

			run := func(path string) {
				out, err := pipeline.RunFile(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
					return
				}
				renderDiagnostics(cmd.ErrOrStderr(), out.Collector, cfg.Output)
				if out.Success() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d error(s)\n",
						path, out.Collector.ErrorCount())
				}
			}

			if !info.IsDir() {
				run(target)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", watchPath)

			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
						continue
					}
					if !info.IsDir() && filepath.Clean(event.Name) != filepath.Clean(target) {
						continue
					}
					if info.IsDir() && !strings.HasSuffix(event.Name, ".lum") {
						continue
					}
					run(event.Name)
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
				}
			}
		},
	}
}
