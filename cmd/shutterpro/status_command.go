package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"shutterpro/internal/sessionstore"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var sessionFlag string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show capture progress for a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			session := sessionFlag
			if session == "" {
				session = cfg.Session.ID
			}

			store, err := sessionstore.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			captures, err := store.List(cmd.Context(), session)
			if err != nil {
				return err
			}
			if len(captures) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no captures recorded for session %s\n", session)
				return nil
			}

			rows := make([][]string, 0, len(captures))
			for _, c := range captures {
				rows = append(rows, []string{
					fmt.Sprintf("%d", c.Shot),
					c.Mode,
					string(c.Status),
					c.Filename,
					c.UpdatedAt.Local().Format(time.TimeOnly),
					c.Error,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Shot", "Mode", "Status", "File", "Updated", "Error"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))

			summary, err := store.Summary(cmd.Context(), session)
			if err != nil {
				return err
			}
			colorize := shouldColorize(os.Stdout)
			for _, line := range renderSectionHeader("Session "+session, colorize) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			order := []sessionstore.Status{
				sessionstore.StatusPending,
				sessionstore.StatusDownloading,
				sessionstore.StatusDownloaded,
				sessionstore.StatusAnalyzing,
				sessionstore.StatusArchived,
				sessionstore.StatusFailed,
			}
			for _, status := range order {
				count, ok := summary[status]
				if !ok {
					continue
				}
				kind := statusInfo
				switch status {
				case sessionstore.StatusArchived:
					kind = statusOK
				case sessionstore.StatusFailed:
					kind = statusError
				}
				line := renderStatusLine(string(status), kind, fmt.Sprintf("%d", count), colorize)
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionFlag, "session", "s", "", "Session ID (defaults to the configured session)")
	return cmd
}
