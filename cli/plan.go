package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"imageoptimize/config"
	"imageoptimize/models"
	"imageoptimize/variants"
)

func newPlanCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan [variants.json|variants.yaml]",
		Short: "Print the transform jobs a variant list expands to",
		Long:  "Print the transform jobs a variant list expands to, one per variant and retina multiplier. Without a file the default variants are planned.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := variants.Default()
			if len(args) == 1 {
				var err error
				if specs, err = config.LoadVariantsFile(args[0]); err != nil {
					return err
				}
			}
			jobs := variants.Plan(specs)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(jobs)
			}
			return printJobs(out, jobs)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the jobs as JSON")
	return cmd
}

func printJobs(out io.Writer, jobs []models.TransformJob) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIANT\tMULTIPLIER\tWIDTH\tHEIGHT\tQUALITY\tFORMAT")
	for _, j := range jobs {
		format := j.Format
		if format == "" {
			format = "(original)"
		}
		fmt.Fprintf(tw, "%d\t%gx\t%d\t%d\t%d\t%s\n", j.SpecIndex, j.Multiplier, j.Width, j.Height, j.Quality, format)
	}
	return tw.Flush()
}
