package casactl

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newEncryptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt [plaintext|-]",
		Short: "Encrypt a value with the application secret key",
		Long: `Encrypt a value, such as an SMTP password, into the form stored in the
configuration record. Reads the first line of stdin when no argument is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			value, err := rt.readValue(args)
			if err != nil {
				return err
			}
			n, err := rt.secretsNotifier()
			if err != nil {
				return err
			}
			ciphertext, ok := n.EncryptSecret(value)
			if !ok {
				return errors.New("encryption failed")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), ciphertext)
			return nil
		},
	}
}

func newDecryptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt [ciphertext|-]",
		Short: "Decrypt a stored value with the application secret key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			value, err := rt.readValue(args)
			if err != nil {
				return err
			}
			n, err := rt.secretsNotifier()
			if err != nil {
				return err
			}
			plaintext, ok := n.DecryptSecret(value)
			if !ok {
				return errors.New("decryption failed: wrong SECRET_KEY or corrupt value")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), plaintext)
			return nil
		},
	}
}
