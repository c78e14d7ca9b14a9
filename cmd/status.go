package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog size, gap counts, and the last sweep",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		total, err := st.Count(ctx)
		if err != nil {
			return eris.Wrap(err, "count records")
		}
		gaps, err := st.CountGaps(ctx)
		if err != nil {
			return eris.Wrap(err, "count gaps")
		}

		fmt.Printf("Records: %d\n", total)
		fmt.Printf("Missing main image:  %d\n", gaps.MainImage)
		fmt.Printf("Missing gallery:     %d\n", gaps.Gallery)
		fmt.Printf("Missing coordinates: %d\n", gaps.Coordinates)

		sweep, err := st.LastSweep(ctx)
		if err != nil {
			return eris.Wrap(err, "last sweep")
		}
		if sweep == nil {
			fmt.Println("No sweeps recorded")
			return nil
		}
		fmt.Printf("Last sweep: %s (%s) targets=%d started=%s\n",
			sweep.ID, sweep.Status, sweep.Targets, sweep.StartedAt.Format("2006-01-02 15:04:05"))
		if sweep.ReportPath != "" {
			fmt.Printf("Last report: %s\n", sweep.ReportPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
