package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the peer acknowledges packets",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, release, err := openLink(cmd.Context(), linkOptions{})
		if err != nil {
			return err
		}
		defer release()

		acked := 0
		for i := 0; i < pingCount; i++ {
			if i > 0 {
				time.Sleep(pingInterval)
			}
			ok := engine.Ping()
			if ok {
				acked++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ping %d: %s\n", i+1, ackLabel(ok))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d/%d acknowledged\n", acked, pingCount)
		if acked == 0 && pingCount > 0 {
			return fmt.Errorf("peer did not acknowledge any ping")
		}
		return nil
	},
}

func ackLabel(ok bool) string {
	if ok {
		return "ack"
	}
	return "lost"
}

func init() {
	pingCmd.Flags().IntVarP(&pingCount, "count", "c", 3, "number of pings")
	pingCmd.Flags().DurationVar(&pingInterval, "interval", 100*time.Millisecond, "pause between pings")
	rootCmd.AddCommand(pingCmd)
}
