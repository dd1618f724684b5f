package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vsinha/bakeryplan/pkg/config"
	"github.com/vsinha/bakeryplan/pkg/interfaces/cli/output"
)

// globalOptions holds the persistent flags shared by every subcommand
type globalOptions struct {
	dataDir  string
	driver   string
	format   string
	output   string
	logLevel string

	cfg *config.Config
}

// NewRootCommand builds the bakeryplan command tree
func NewRootCommand(version string) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "bakeryplan",
		Short: "Production planning and inventory reconciliation for a bakery",
		Long: `bakeryplan computes the ingredients a day's production needs, compares
them with stock on hand and, once production is confirmed, deducts the
ingredients from stock.

Configuration comes from BAKERY_* environment variables or a .env file;
flags override it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.dataDir, "data-dir", "", "directory with products.csv, supplies.csv, recipes.csv and orders.csv")
	flags.StringVar(&opts.driver, "driver", "", "stock store: memory or postgres")
	flags.StringVarP(&opts.format, "format", "f", output.FormatText, "output format: text, json or csv")
	flags.StringVarP(&opts.output, "output", "o", "", "write results to this file instead of stdout")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn or error")

	cmd.AddCommand(
		newPlanCommand(opts),
		newProduceCommand(opts),
		newSuggestCommand(opts),
		newValidateCommand(opts),
		newSeedCommand(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "bakeryplan %s\n", version)
			},
		},
	)
	return cmd
}

func (o *globalOptions) load(cmd *cobra.Command) error {
	if err := output.ValidateFormat(o.format); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = o.dataDir
	}
	if cmd.Flags().Changed("driver") {
		cfg.StoreDriver = o.driver
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	setupLogging(cmd.ErrOrStderr(), cfg)
	o.cfg = cfg
	return nil
}

// writer returns where results go. The returned close function must be called.
func (o *globalOptions) writer(cmd *cobra.Command) (io.Writer, func() error, error) {
	if o.output == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(o.output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func setupLogging(w io.Writer, cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
}
