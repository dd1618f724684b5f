package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vsinha/bakeryplan/pkg/application/dto"
	"github.com/vsinha/bakeryplan/pkg/application/services/planning"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/requests"
	"github.com/vsinha/bakeryplan/pkg/interfaces/cli/output"
)

// requestSource reads production requests from positional args or a YAML file
type requestSource struct {
	file string
}

func (s *requestSource) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.file, "file", "", "YAML file with production requests")
}

func (s *requestSource) read(args []string) ([]entities.ProductionRequest, error) {
	if s.file != "" && len(args) > 0 {
		return nil, fmt.Errorf("%w: give requests either as arguments or with --file, not both", entities.ErrInvalidInput)
	}
	if s.file != "" {
		return requests.LoadFile(s.file)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no production requests given", entities.ErrInvalidInput)
	}
	return requests.ParseArgs(args)
}

func newPlanCommand(opts *globalOptions) *cobra.Command {
	var source requestSource
	var shoppingList bool

	cmd := &cobra.Command{
		Use:   "plan [product=quantity ...]",
		Short: "Compute ingredient requirements and shortages without touching stock",
		Example: `  bakeryplan plan concha-vainilla=50 bolillo=120
  bakeryplan plan --file today.yaml --format json
  bakeryplan plan concha-vainilla=50 --shopping-list`,
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

			if shoppingList {
				return writeShoppingList(w, app, plan)
			}
			return output.WritePlan(w, plan, opts.format)
		},
	}
	source.bind(cmd)
	cmd.Flags().BoolVar(&shoppingList, "shopping-list", false, "print only the shopping list of short ingredients")
	return cmd
}

func writeShoppingList(w io.Writer, app *App, plan *dto.ProductionPlan) error {
	list, err := app.Orchestrator.ExportShoppingList(plan)
	if errors.Is(err, planning.ErrNothingToBuy) {
		_, err = fmt.Fprintln(w, "Nothing to buy: stock covers every ingredient.")
		return err
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, list)
	return err
}
