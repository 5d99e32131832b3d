package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contactrelay/contactrelay/internal/config"
	"github.com/contactrelay/contactrelay/internal/contact"
	"github.com/contactrelay/contactrelay/internal/email"
	"github.com/contactrelay/contactrelay/internal/handler"
	contactrelay "github.com/contactrelay/contactrelay/sdk/go"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "contactrelay",
		Short:         "Relay website contact form submissions by email",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "providers",
		Short: "List email providers in selection order",
		RunE:  runProviders,
	})
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "contactrelay", handler.Version)
		},
	})

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	selected := false
	for _, c := range email.Candidates(cfg.Email) {
		mark := " "
		state := "not configured"
		if c.Configured {
			state = "configured"
			if !selected {
				mark = "*"
				selected = true
			}
		}
		fmt.Fprintf(out, "%s %-8s %s\n", mark, c.Name, state)
	}
	if !selected {
		fmt.Fprintln(out, "no provider configured; submissions will fail with 503")
	}
	return nil
}

func newPreviewCmd() *cobra.Command {
	var name, addr, message string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a submission without sending it",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := contact.NewValidator()
			if err != nil {
				return err
			}

			s := contact.Normalize(map[string]any{"name": name, "email": addr, "message": message})
			if err := v.Validate(s); err != nil {
				var verr *contact.ValidationError
				if errors.As(err, &verr) {
					return fmt.Errorf("%w: %s", err, strings.Join(verr.Fields, ", "))
				}
				return err
			}

			body := contact.Render(s)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "--- text ---\n%s\n--- html ---\n%s\n", body.Text, body.HTML)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "submitter name")
	cmd.Flags().StringVar(&addr, "email", "", "submitter email")
	cmd.Flags().StringVar(&message, "message", "", "message body")

	return cmd
}

func newSubmitCmd() *cobra.Command {
	var baseURL string
	var s contactrelay.Submission

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Post a submission to a running relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := contactrelay.NewClient(contactrelay.Config{BaseURL: baseURL})
			msg, err := client.Submit(cmd.Context(), s)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:3000", "relay base URL")
	cmd.Flags().StringVar(&s.Name, "name", "", "submitter name")
	cmd.Flags().StringVar(&s.Email, "email", "", "submitter email")
	cmd.Flags().StringVar(&s.Message, "message", "", "message body")

	return cmd
}
