package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	proto "github.com/ystepanoff/nrflink/protocol"
)

var (
	keygenPassphrase string
	keygenSalt       string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print a link key for the crypto.key_hex setting",
	Long: `Print a random AES-128 link key as hex. With --passphrase the key is
derived from the passphrase and --salt instead, so every node can compute it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			key []byte
			err error
		)
		if keygenPassphrase != "" {
			key, err = proto.DeriveKey([]byte(keygenPassphrase), []byte(keygenSalt))
		} else {
			key, err = proto.GenerateKey()
		}
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(key)

		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(key))
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenPassphrase, "passphrase", "", "derive the key from this passphrase")
	keygenCmd.Flags().StringVar(&keygenSalt, "salt", "", "salt for --passphrase")
	rootCmd.AddCommand(keygenCmd)
}
