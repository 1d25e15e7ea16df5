package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ystepanoff/nrflink/gateway"
	proto "github.com/ystepanoff/nrflink/protocol"
	"github.com/ystepanoff/nrflink/store"
)

var (
	listenCount    int
	listenDuration time.Duration
	listenSimulate bool
	listenInterval time.Duration
	listenLoss     float64
	listenCorrupt  float64
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Receive messages and print them as JSON lines",
	Long: `Receive framed messages until interrupted and write every sensor report
to stdout as one CRLF-terminated JSON line. Readings are saved to the
configured store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if listenDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, listenDuration)
			defer cancel()
		}
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		st, err := store.Open(ctx, cfg.Store.Options())
		if err != nil {
			return err
		}
		defer st.Close()

		engine, release, err := openLink(ctx, linkOptions{
			simulate: listenSimulate,
			interval: listenInterval,
			loss:     listenLoss,
			corrupt:  listenCorrupt,
		})
		if err != nil {
			return err
		}
		defer release()

		w := gateway.NewWriter(cmd.OutOrStdout())
		codec := cfg.MessageCodec()
		received := 0
		err = engine.Listen(ctx, func(raw []byte, err error) {
			if err != nil {
				logger.Printf("[Listen] %v\r\n", err)
				return
			}
			var report proto.SensorReport
			if err := codec.Unmarshal(raw, &report); err != nil || report.Type == "" {
				logger.Printf("[Listen] Not a report: %q\r\n", raw)
				return
			}
			if err := w.WriteReport(report); err != nil {
				logger.Printf("[Listen] %v\r\n", err)
			}
			if err := st.Save(ctx, report.Readings(time.Now())...); err != nil {
				logger.Printf("[Listen] Store: %v\r\n", err)
			}
			received++
			if listenCount > 0 && received >= listenCount {
				cancel()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), engine.Stats())
		return nil
	},
}

func init() {
	listenCmd.Flags().IntVarP(&listenCount, "count", "n", 0, "stop after this many reports (0 = unlimited)")
	listenCmd.Flags().DurationVar(&listenDuration, "for", 0, "stop after this long (0 = until interrupted)")
	listenCmd.Flags().BoolVar(&listenSimulate, "simulate", false, "run a simulated sensor node on a stub link")
	listenCmd.Flags().DurationVar(&listenInterval, "interval", time.Second, "simulated node report interval")
	listenCmd.Flags().Float64Var(&listenLoss, "loss", 0, "probability of dropping a packet (0..1)")
	listenCmd.Flags().Float64Var(&listenCorrupt, "corrupt", 0, "probability of corrupting a received packet (0..1)")
	rootCmd.AddCommand(listenCmd)
}
