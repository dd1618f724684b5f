package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vsinha/bakeryplan/pkg/application/dto"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/interfaces/cli/output"
)

func newProduceCommand(opts *globalOptions) *cobra.Command {
	var source requestSource
	var strict bool

	cmd := &cobra.Command{
		Use:   "produce [product=quantity ...]",
		Short: "Plan production and deduct the ingredients from stock",
		Long: `produce plans the requested production and confirms it: every tracked
ingredient is deducted from stock as one unit. If any deduction fails the
ones already applied are reverted.

Shortages do not block confirmation unless --strict is set; stock may go
negative and is reported as such.`,
		Example: `  bakeryplan produce concha-vainilla=50 bolillo=120
  bakeryplan produce --file today.yaml --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := source.read(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := NewApp(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			sess, err := app.Orchestrator.StartSession(ctx)
			if err != nil {
				return err
			}
			defer app.Orchestrator.EndSession(sess)

			plan, err := app.Orchestrator.PlanProduction(ctx, sess, reqs)
			if err != nil {
				return err
			}

			w, closeOut, err := opts.writer(cmd)
			if err != nil {
				return err
			}
			defer closeOut()

			if strict && plan.HasShortage() {
				if err := output.WritePlan(w, plan, opts.format); err != nil {
					return err
				}
				return fmt.Errorf("%w: %d ingredients short, production not confirmed", entities.ErrInvalidInput, len(plan.ShortIngredients()))
			}

			result, commitErr := app.Orchestrator.ConfirmProduction(ctx, sess, plan)
			if result != nil {
				if err := output.WriteCommit(w, result, opts.format); err != nil {
					return err
				}
				if result.Outcome == dto.Committed || result.Outcome == dto.RollbackFailed {
					if err := app.Persist(ctx); err != nil {
						return err
					}
				}
				if result.NegativeStock {
					log.Warn().Str("commit_id", result.CommitID.String()).Msg("some supplies went below zero")
				}
			}
			return commitErr
		},
	}
	source.bind(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "refuse to confirm when any ingredient is short")
	return cmd
}
