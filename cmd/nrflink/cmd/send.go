package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	proto "github.com/ystepanoff/nrflink/protocol"
)

var (
	sendRaw         bool
	sendTemperature float64
	sendHumidity    float64
	sendPIR         float64
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send one framed message",
	Long: `Send one message over the link.

The message argument is a JSON document, encoded with the configured codec.
With --raw it is sent as bytes without encoding. Without an argument a sensor
report is built from the --temperature, --humidity and --pir flags.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, release, err := openLink(cmd.Context(), linkOptions{})
		if err != nil {
			return err
		}
		defer release()

		switch {
		case len(args) == 1 && sendRaw:
			err = engine.SendRaw([]byte(args[0]))
		case len(args) == 1:
			var v any
			if err := json.Unmarshal([]byte(args[0]), &v); err != nil {
				return fmt.Errorf("message is not valid JSON: %w", err)
			}
			err = engine.Send(v)
		default:
			report, rerr := reportFromFlags(cmd)
			if rerr != nil {
				return rerr
			}
			err = engine.Send(report)
		}
		if err != nil {
			return fmt.Errorf("send: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "message sent")
		return nil
	},
}

func reportFromFlags(cmd *cobra.Command) (proto.SensorReport, error) {
	report := proto.SensorReport{Type: proto.ReportTypeSensors, Payload: map[string]*float64{}}
	for flag, key := range map[string]string{"temperature": "t", "humidity": "h", "pir": "p"} {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		v, err := cmd.Flags().GetFloat64(flag)
		if err != nil {
			return report, err
		}
		report.Payload[key] = &v
	}
	if len(report.Payload) == 0 {
		return report, fmt.Errorf("nothing to send: give a message or at least one sensor flag")
	}
	return report, nil
}

func init() {
	sendCmd.Flags().BoolVar(&sendRaw, "raw", false, "send the argument as raw bytes")
	sendCmd.Flags().Float64Var(&sendTemperature, "temperature", 0, "temperature reading")
	sendCmd.Flags().Float64Var(&sendHumidity, "humidity", 0, "humidity reading")
	sendCmd.Flags().Float64Var(&sendPIR, "pir", 0, "PIR sensor reading")
	rootCmd.AddCommand(sendCmd)
}
