package casactl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyxmakerx/casa-helloworld/internal/plugins/auth"
)

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password|-]",
		Short: "Print the argon2id hash of a console password",
		Long: `Print the argon2id hash to store in users.password_hash. Reads the first
line of stdin when no argument is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			password, err := rt.readValue(args)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
