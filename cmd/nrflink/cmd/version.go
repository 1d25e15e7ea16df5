package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const nrflinkVersion = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show nrflink version and link parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "nrflink version %s\n", nrflinkVersion)
		pc := cfg.Link.Protocol()
		fmt.Fprintf(cmd.OutOrStdout(), "link: %d-byte blocks, %d-byte messages, codec %s\n",
			pc.BlockSize, pc.MsgSize, cfg.Codec)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
