package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"simreg/internal/domain"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the wizard steps",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STEP\tSCREEN\tPHASE")
		for s := domain.StepMobileVerification; s <= domain.StepComplete; s++ {
			fmt.Fprintf(tw, "%d\t%s\t%d/%d\n", s, domain.ScreenFor(s), s.Phase(), domain.DisplayPhases)
		}
		return tw.Flush()
	},
}
