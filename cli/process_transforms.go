package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProcessTransformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process-transforms",
		Short: "Generate every queued transform and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			pending, err := rt.transforms.Pending()
			if err != nil {
				return err
			}
			processed, err := rt.transforms.ProcessPending(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d of %d queued transforms\n", processed, pending)
			return err
		},
	}
}
