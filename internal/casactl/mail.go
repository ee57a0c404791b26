package casactl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keyxmakerx/casa-helloworld/internal/plugins/smtp"
	"github.com/keyxmakerx/casa-helloworld/internal/sanitize"
)

func newSendEmailCommand() *cobra.Command {
	var (
		to       string
		subject  string
		body     string
		bodyFile string
		testOnly bool
	)

	cmd := &cobra.Command{
		Use:   "send-email",
		Short: "Send a message through the configured SMTP relay",
		Long: `Send an HTML message using the SMTP settings stored in the configuration
record. The body is sanitized before sending. With --test-only the relay
connection and login are checked and nothing is sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			n, release, err := rt.factory(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer release()

			if testOnly {
				if err := n.TestConnection(cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "SMTP connection OK")
				return nil
			}

			if strings.TrimSpace(to) == "" {
				return errors.New("--to is required")
			}
			html, err := readBody(rt.in, body, bodyFile)
			if err != nil {
				return err
			}

			email := smtp.Email{To: to, Subject: subject, HTMLBody: sanitize.HTML(html)}
			if err := n.Send(cmd.Context(), email); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sent to %s\n", to)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().StringVar(&subject, "subject", "Test message from Casa", "Subject line")
	cmd.Flags().StringVar(&body, "body", "", "HTML body")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "Read the HTML body from a file (- for stdin)")
	cmd.Flags().BoolVar(&testOnly, "test-only", false, "Only check the relay connection")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")

	return cmd
}

func readBody(stdin io.Reader, body, bodyFile string) (string, error) {
	switch bodyFile {
	case "":
		if body == "" {
			return "<p>This is a test message from Casa.</p>", nil
		}
		return body, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading body from stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(bodyFile)
		if err != nil {
			return "", fmt.Errorf("reading body file: %w", err)
		}
		return string(data), nil
	}
}
