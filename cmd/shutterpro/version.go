package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version identifies the build. Release tooling overrides it via ldflags.
var Version = "1.4.1"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the shutterpro version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "shutterpro %s\n", Version)
			return nil
		},
	}
}
