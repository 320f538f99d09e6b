package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/confsync/confsync/pkg/providers"
)

func newCopyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy <src> <dst>",
		Short: "Re-encode a config file between formats",
		Long: `Decode src through the provider matching its extension and re-encode
the value tree to dst. Conversion goes through the format-neutral tree,
so any supported source format maps to any supported target format.`,
		Example: `  # Convert YAML to JSON
  confsync copy app.yaml app.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dst := args[0], args[1]

			tree, err := providers.ForPath(src).Load(src)
			if err != nil {
				return err
			}
			if err := providers.ForPath(dst).Store(tree, dst); err != nil {
				return err
			}

			log.Info().Str("src", src).Str("dst", dst).Msg("Config copied")
			return nil
		},
	}
	return cmd
}
