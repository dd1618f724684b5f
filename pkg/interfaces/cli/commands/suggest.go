package commands

import (
	"github.com/spf13/cobra"

	"github.com/vsinha/bakeryplan/pkg/interfaces/cli/output"
)

func newSuggestCommand(opts *globalOptions) *cobra.Command {
	var withPlan bool

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Propose production from pending customer orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			suggestion, err := app.Orchestrator.SuggestFromPendingOrders(ctx, sess)
			if err != nil {
				return err
			}

			w, closeOut, err := opts.writer(cmd)
			if err != nil {
				return err
			}
			defer closeOut()

			if !withPlan {
				return output.WriteSuggestion(w, suggestion, opts.format)
			}
			plan, err := app.Orchestrator.PlanSession(ctx, sess)
			if err != nil {
				return err
			}
			return output.WritePlan(w, plan, opts.format)
		},
	}
	cmd.Flags().BoolVar(&withPlan, "plan", false, "plan the suggested production instead of listing it")
	return cmd
}
