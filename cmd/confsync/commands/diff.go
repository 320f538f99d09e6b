package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confsync/confsync/pkg/providers"
)

func newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <a> <b>",
		Short: "Compare two config files as value trees",
		Long: `Decode both files and compare the resulting value trees. Formatting
differences (key order, indentation, quoting, file format) do not count;
only the decoded values do. Exits non-zero when the trees differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := providers.ForPath(args[0]).Load(args[0])
			if err != nil {
				return err
			}
			b, err := providers.ForPath(args[1]).Load(args[1])
			if err != nil {
				return err
			}

			if a.Equal(b) {
				fmt.Println("Configs are equivalent")
				return nil
			}
			return fmt.Errorf("configs differ: %s vs %s", args[0], args[1])
		},
	}
	return cmd
}
