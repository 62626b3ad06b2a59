package simulate

import (
	"github.com/spf13/cobra"

	"github.com/okian/suggest/pkg/logger"
)

// NewCommand creates the simulate root command.
func NewCommand() *cobra.Command {
	cfg := DefaultConfig()

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a running suggest service with synthetic history",
		Long: `simulate generates SHOWN and CLICKED events for a set of suggestions with
strictly decreasing click counts, submits them over HTTP, waits until the
service has stored them and checks that POST /rank returns them best first.

Examples:
  # Run against a local service
  simulate --url http://localhost:9080

  # Larger run with more submitters
  simulate --suggestions 50 --shown 100 --workers 32`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Verbose {
				return logger.SetLevelString("debug")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := Run(cmd.Context(), cfg)
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Base URL of the service")
	cmd.Flags().IntVar(&cfg.Suggestions, "suggestions", cfg.Suggestions, "Number of distinct suggestions")
	cmd.Flags().IntVar(&cfg.Shown, "shown", cfg.Shown, "SHOWN events per suggestion")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of concurrent submitters")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	cmd.Flags().DurationVar(&cfg.SettleTimeout, "settle", cfg.SettleTimeout, "How long to wait for events to be stored")
	cmd.Flags().StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "Suggestion identifier prefix")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose logging")

	return cmd
}
