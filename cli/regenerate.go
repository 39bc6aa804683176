package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"imageoptimize/assets"
	"imageoptimize/logger"
)

func newRegenerateCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "regenerate [assetID...]",
		Short: "Re-save assets so their optimized images are generated again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("pass at least one asset id or --all")
			}

			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			var list []*assets.Asset
			if all {
				if list, err = assets.List(); err != nil {
					return err
				}
			} else {
				for _, id := range args {
					a, err := assets.Get(id)
					if err != nil {
						return err
					}
					list = append(list, a)
				}
			}

			failed := 0
			for _, a := range list {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if err := rt.assets.Save(cmd.Context(), a); err != nil {
					logger.Errorf("Failed to regenerate asset %s: %v", a.ID, err)
					failed++
					continue
				}
				v, err := rt.field.Value(a)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d urls\n", a.ID, a.Filename, len(v.OptimizedImageURLs))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d assets failed to regenerate", failed, len(list))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "regenerate every stored asset")
	return cmd
}
