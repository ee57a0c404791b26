// Package casactl implements the casactl command tree.
package casactl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keyxmakerx/casa-helloworld/internal/config"
	"github.com/keyxmakerx/casa-helloworld/internal/database"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/persistence"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/smtp"
	"github.com/keyxmakerx/casa-helloworld/internal/secret"
)

// NotifierFactory builds a notifier backed by the stored SMTP settings. The
// returned func releases its resources.
type NotifierFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (smtp.Notifier, func(), error)

// Config holds the command tree's dependencies.
type Config struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	LoadConfig  func() (*config.Config, error)
	NewNotifier NotifierFactory
}

// DefaultConfig reads from the process environment and MariaDB.
func DefaultConfig() Config {
	return Config{
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         os.Stderr,
		LoadConfig:  config.Load,
		NewNotifier: databaseNotifier,
	}
}

type runtimeState struct {
	in      io.Reader
	out     io.Writer
	logger  *slog.Logger
	cfg     *config.Config
	factory NotifierFactory
	verbose bool
}

type runtimeKey struct{}

// NewRootCommand builds the casactl command tree.
func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{in: cfg.In, out: cfg.Out, factory: cfg.NewNotifier}

	root := &cobra.Command{
		Use:          "casactl",
		Short:        "Casa plugin server operator tool",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if rt.verbose {
				level = slog.LevelDebug
			}
			errOut := cfg.Err
			if errOut == nil {
				errOut = os.Stderr
			}
			rt.logger = slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

			if cmd.Name() == "hash-password" {
				return nil
			}
			loaded, err := cfg.LoadConfig()
			if err != nil {
				return err
			}
			rt.cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Log debug output to stderr")
	root.SetIn(cfg.In)
	root.SetOut(cfg.Out)
	if cfg.Err != nil {
		root.SetErr(cfg.Err)
	}
	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		newEncryptCommand(),
		newDecryptCommand(),
		newHashPasswordCommand(),
		newSendEmailCommand(),
	)
	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("casactl runtime not initialised")
	}
	return rt, nil
}

// secretsNotifier returns a notifier that can only encrypt and decrypt.
func (rt *runtimeState) secretsNotifier() (smtp.Notifier, error) {
	secrets, err := secret.NewStringEncrypter(rt.cfg.Auth.SecretKey)
	if err != nil {
		return nil, err
	}
	return smtp.NewNotifier(nil, secrets, nil, rt.logger), nil
}

// readValue returns args[0], or the first line of stdin when no argument
// is given or it is "-".
func (rt *runtimeState) readValue(args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	line, err := bufio.NewReader(rt.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	value := strings.TrimRight(line, "\r\n")
	if value == "" {
		return "", errors.New("no value given on the command line or stdin")
	}
	return value, nil
}

// databaseNotifier wires the notifier to the configuration record in MariaDB.
func databaseNotifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (smtp.Notifier, func(), error) {
	secrets, err := secret.NewStringEncrypter(cfg.Auth.SecretKey)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.NewMariaDB(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	provider := persistence.NewPersistenceService(persistence.NewConfigurationRepository(db), cfg.Mail.ConfigurationDN)
	notifier := smtp.NewNotifier(provider, secrets, smtp.NewSMTPTransport(cfg.Mail.DialTimeout), logger)
	return notifier, func() { _ = db.Close() }, nil
}
