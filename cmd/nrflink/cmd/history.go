package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ystepanoff/nrflink/store"
)

var (
	historySince   time.Duration
	historyAverage bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored sensor readings",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cmd.Context(), cfg.Store.Options())
		if err != nil {
			return err
		}
		defer st.Close()

		from := time.Now().Add(-historySince)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()

		if historyAverage {
			avg, err := st.Average(cmd.Context(), from)
			if err != nil {
				return err
			}
			if len(avg) == 0 {
				fmt.Fprintln(w, "no readings")
				return nil
			}
			sensors := make([]string, 0, len(avg))
			for s := range avg {
				sensors = append(sensors, s)
			}
			sort.Strings(sensors)
			fmt.Fprintln(w, "SENSOR\tAVERAGE")
			for _, s := range sensors {
				fmt.Fprintf(w, "%s\t%.2f\n", s, avg[s])
			}
			return nil
		}

		readings, err := st.Since(cmd.Context(), from)
		if err != nil {
			return err
		}
		if len(readings) == 0 {
			fmt.Fprintln(w, "no readings")
			return nil
		}
		fmt.Fprintln(w, "RECEIVED\tSENSOR\tVALUE")
		for _, r := range readings {
			fmt.Fprintf(w, "%s\t%s\t%g\n", r.ReceivedAt.Local().Format(time.DateTime), r.Sensor, r.Value)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().DurationVar(&historySince, "since", 24*time.Hour, "how far back to look")
	historyCmd.Flags().BoolVar(&historyAverage, "avg", false, "print the average per sensor instead")
	rootCmd.AddCommand(historyCmd)
}
