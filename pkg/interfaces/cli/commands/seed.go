package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vsinha/bakeryplan/pkg/config"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/repositories/gormstore"
)

func newSeedCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the CSV data directory into PostgreSQL",
		Long: `seed upserts products, supplies, recipes and orders from the data
directory into the database named by BAKERY_DATABASE_URL. Existing rows with
the same id are overwritten, stock included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if cfg.StoreDriver != config.DriverPostgres {
				return fmt.Errorf("seed requires the postgres driver, got %q", cfg.StoreDriver)
			}

			data, err := csv.NewLoader().LoadDataDir(cfg.DataDir)
			if err != nil {
				return err
			}

			db, err := gormstore.Open(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := gormstore.Seed(cmd.Context(), db, data.Products, data.Supplies, data.Recipes, data.Orders); err != nil {
				return fmt.Errorf("failed to seed database: %w", err)
			}
			log.Info().
				Int("products", len(data.Products)).
				Int("supplies", len(data.Supplies)).
				Int("recipe_lines", len(data.Recipes)).
				Int("orders", len(data.Orders)).
				Msg("database seeded")
			return nil
		},
	}
}
