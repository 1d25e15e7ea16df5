package cmd

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	proto "github.com/ystepanoff/nrflink/protocol"
	"github.com/ystepanoff/nrflink/store"
	"github.com/ystepanoff/nrflink/tui"
)

var (
	monitorSimulate bool
	monitorInterval time.Duration
	monitorLoss     float64
	monitorCorrupt  float64
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Launch the live link monitor",
	Long: `Launch an interactive terminal view of the link: latest sensor values,
link statistics and recent receive attempts.

Key bindings:
  c           Clear the event log
  q / Ctrl+C  Quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		st, err := store.Open(ctx, cfg.Store.Options())
		if err != nil {
			return err
		}
		defer st.Close()

		engine, release, err := openLink(ctx, linkOptions{
			simulate: monitorSimulate,
			interval: monitorInterval,
			loss:     monitorLoss,
			corrupt:  monitorCorrupt,
		})
		if err != nil {
			return err
		}
		defer release()

		events := make(chan tui.Event, 16)
		done := make(chan struct{})
		go func() {
			defer close(done)
			defer close(events)
			codec := cfg.MessageCodec()
			_ = engine.Listen(ctx, func(raw []byte, err error) {
				e := tui.Event{At: time.Now(), Err: err}
				if err == nil {
					var report proto.SensorReport
					if derr := codec.Unmarshal(raw, &report); derr != nil {
						e.Err = derr
					} else {
						e.Report = &report
						_ = st.Save(ctx, report.Readings(e.At)...)
					}
				}
				select {
				case events <- e:
				case <-ctx.Done():
				}
			})
		}()

		p := tea.NewProgram(tui.New(events, engine.Stats), tea.WithAltScreen(), tea.WithContext(ctx))
		_, err = p.Run()
		cancel()
		<-done
		if err == tea.ErrProgramKilled {
			return nil
		}
		return err
	},
}

func init() {
	monitorCmd.Flags().BoolVar(&monitorSimulate, "simulate", false, "run a simulated sensor node on a stub link")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", time.Second, "simulated node report interval")
	monitorCmd.Flags().Float64Var(&monitorLoss, "loss", 0, "probability of dropping a packet (0..1)")
	monitorCmd.Flags().Float64Var(&monitorCorrupt, "corrupt", 0, "probability of corrupting a received packet (0..1)")
	rootCmd.AddCommand(monitorCmd)
}
