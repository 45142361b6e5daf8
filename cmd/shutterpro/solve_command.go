package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shutterpro/internal/services/solvefield"
	"shutterpro/internal/solver"
)

func newSolveCommand(ctx *commandContext) *cobra.Command {
	var allSkyFlag bool
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "solve [filename]",
		Short: "Plate-solve the latest capture or a named archived file",
		Long: `Without arguments, solve the file the latest pointer names and write the
result back through fingerprint reconciliation. With a filename, solve
that archived capture directly.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if allSkyFlag {
				cfg.Solver.AllSky = true
			}
			logger := ctx.ensureLogger()

			client := solvefield.New(cfg, logger)
			annotator := solver.New(client, cfg, forceFlag, logger)

			var outcome solver.Outcome
			if len(args) == 1 {
				outcome, err = annotator.SolveTarget(cmd.Context(), args[0])
			} else {
				outcome, err = annotator.SolveLatest(cmd.Context())
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSolveDashboard(outcome))
			return nil
		},
	}

	cmd.Flags().BoolVar(&allSkyFlag, "allsky", false, "Allow blind all-sky solving without coordinate hints")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Re-solve even when the archive already records a success")
	return cmd
}
