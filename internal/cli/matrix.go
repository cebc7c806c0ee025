package cli

import (
	"fmt"

	"github.com/Sternrassler/wubba/pkg/catalog"
	"github.com/Sternrassler/wubba/pkg/dispatch"
	"github.com/spf13/cobra"
)

func (a *app) newMatrixCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "matrix character|location",
		Short: "Rank characters by episodes or locations by residents",
		Long: `Rank every character by the number of episodes it appears in, or every
location by the number of residents it has. Ties keep API order.

Examples:
  wubba matrix character -l 10
  wubba matrix location -t`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"character", "location"},
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			collection, err := collectionArg(args)
			if err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("invalid limit %d: must not be negative", limit)
			}

			return a.run(cmd, dispatch.Command{
				Name:        dispatch.CommandMatrix,
				Collections: []catalog.Collection{collection},
				Limit:       limit,
			}, a.format(), nil)
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "keep only the top entries (0 keeps all)")

	return cmd
}
