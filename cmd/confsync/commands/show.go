package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/confsync/confsync/pkg/providers"
)

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Decode a config file and print its value tree",
		Long: `Decode a config file through the provider matching its extension and
print the resulting value tree, normalized. Useful for checking what the
conversion engine will actually see.`,
		Example: `  # Show a YAML config
  confsync show app.yaml

  # Show a JSON config as JSON
  confsync show --json app.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			tree, err := providers.ForPath(path).Load(path)
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := providers.EncodeJSON(tree)
				if err != nil {
					return err
				}
				fmt.Print(string(data))
				return nil
			}

			data, err := yaml.Marshal(tree.ToInterface())
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
	return cmd
}
