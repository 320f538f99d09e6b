package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/confsync/confsync/pkg/providers"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check that config files decode cleanly",
		Long: `Run each file through the provider matching its extension and report
files that fail to decode into a value tree. Malformed files are
reported individually; the command exits non-zero if any file failed.`,
		Example: `  # Validate every config handed in
  confsync validate app.yaml overrides.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if _, err := providers.ForPath(path).Load(path); err != nil {
					log.Error().Err(err).Str("path", path).Msg("Config is invalid")
					failed++
					continue
				}
				log.Info().Str("path", path).Msg("Config is valid")
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d configs failed validation", failed, len(args))
			}
			return nil
		},
	}
	return cmd
}
