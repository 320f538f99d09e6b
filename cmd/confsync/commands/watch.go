package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/confsync/confsync/pkg/providers"
)

func newWatchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Watch a config file and print its tree on every change",
		Long: `Watch the directory containing the file and re-decode the file whenever
it changes, printing the resulting value tree. Rapid successive events
are debounced. Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			provider := providers.ForPath(path)

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()

			// Watch the directory, not the file: editors replace files and
			// a watch on the old inode would go stale.
			if err := watcher.Add(filepath.Dir(path)); err != nil {
				return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
			}

			printTree := func() {
				tree, err := provider.Load(path)
				if err != nil {
					log.Error().Err(err).Str("path", path).Msg("Failed to decode config")
					return
				}
				data, err := yaml.Marshal(tree.ToInterface())
				if err != nil {
					log.Error().Err(err).Msg("Failed to render tree")
					return
				}
				fmt.Printf("--- %s @ %s\n%s", path, time.Now().Format(time.RFC3339), data)
			}

			printTree()
			log.Info().Str("path", path).Msg("Watching config")

			var reloadTimer *time.Timer
			for {
				select {
				case <-cmd.Context().Done():
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(event.Name) != path {
						continue
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
						continue
					}
					if reloadTimer != nil {
						reloadTimer.Stop()
					}
					reloadTimer = time.AfterFunc(debounce, printTree)

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.Error().Err(err).Msg("Watcher error")
				}
			}
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "delay before reloading after a change")
	return cmd
}
