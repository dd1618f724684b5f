package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/services"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/bakeryplan/pkg/interfaces/cli/output"
)

func newValidateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check recipes in the data directory against products and supplies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := csv.NewLoader().LoadDataDir(opts.cfg.DataDir)
			if err != nil {
				return err
			}

			result := services.NewRecipeValidator().ValidateRecipes(
				derefAll(data.Recipes),
				derefAll(data.Products),
				derefAll(data.Supplies),
			)

			w, closeOut, err := opts.writer(cmd)
			if err != nil {
				return err
			}
			defer closeOut()

			if err := output.WriteValidation(w, result, opts.format); err != nil {
				return err
			}
			if !result.IsValid() {
				return fmt.Errorf("%w: %d recipe errors found", entities.ErrInconsistent, len(result.Errors))
			}
			return nil
		},
	}
}

func derefAll[T any](items []*T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = *item
	}
	return out
}
