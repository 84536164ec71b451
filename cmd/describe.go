package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print model metadata and feature importance as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.adapter().Info(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}
