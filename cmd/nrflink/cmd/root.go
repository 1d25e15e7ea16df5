package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ystepanoff/nrflink/config"
	"github.com/ystepanoff/nrflink/transport"
)

var (
	// Global flags
	cfgFile    string
	debug      bool
	codecName  string
	dialAddr   string
	listenAddr string
	proxyURL   string

	// Shared state set during PersistentPreRun
	cfg    *config.Config
	logger transport.Logger
)

// rootCmd is the base command for nrflink.
var rootCmd = &cobra.Command{
	Use:   "nrflink",
	Short: "Framed messaging over 32-byte radio packets",
	Long: `nrflink sends and receives messages over a half-duplex packet radio link.
Each message is split into fixed-size blocks and framed by start and end
marker packets. The link can be a local simulation, a TCP connection to a
radio gateway, or (on TinyGo builds) the nRF5x radio itself.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Override config with flags
		if codecName != "" {
			cfg.Codec = codecName
		}
		if dialAddr != "" {
			cfg.Transport.Kind = "netlink"
			cfg.Transport.Dial = dialAddr
			cfg.Transport.Listen = ""
		}
		if listenAddr != "" {
			cfg.Transport.Kind = "netlink"
			cfg.Transport.Listen = listenAddr
			cfg.Transport.Dial = ""
		}
		if proxyURL != "" {
			cfg.Transport.Proxy = proxyURL
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger = log.New(io.Discard, "", 0)
		if debug {
			logger = log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// RootCmd returns the root cobra.Command for testing purposes.
func RootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.nrflink/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log link activity to stderr")
	rootCmd.PersistentFlags().StringVar(&codecName, "codec", "", "message codec: json, cbor")
	rootCmd.PersistentFlags().StringVar(&dialAddr, "dial", "", "connect to a netlink peer at host:port")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "listen", "", "accept one netlink peer on host:port")
	rootCmd.PersistentFlags().StringVar(&proxyURL, "proxy", "", "SOCKS5 proxy URL for --dial")

	rootCmd.SetOut(os.Stdout)
}
