package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := map[string]string{
				"version": version,
				"commit":  commit,
			}
			if ok, err := printStructured(os.Stdout, getOutputFormat(cmd), info); ok {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "genie-dash version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
