package cli

import (
	"fmt"
	"strconv"

	"github.com/Sternrassler/wubba/pkg/catalog"
	"github.com/Sternrassler/wubba/pkg/dispatch"
	"github.com/spf13/cobra"
)

func (a *app) newGetCmd() *cobra.Command {
	var image bool

	cmd := &cobra.Command{
		Use:   "get character|location|episode [id]",
		Short: "Fetch one record by id, or the whole collection",
		Long: `Fetch a single record by id. Without an id the whole collection is
fetched, page by page.

Examples:
  wubba get character 1
  wubba get character 1 --image
  wubba get episode -t`,
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"character", "location", "episode"},
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			collection, err := collectionArg(args)
			if err != nil {
				return err
			}

			id := 0
			if len(args) == 2 {
				id, err = strconv.Atoi(args[1])
				if err != nil || id < 1 {
					return fmt.Errorf("invalid id %q: must be a positive integer", args[1])
				}
			}

			if image && collection != catalog.CollectionCharacter {
				return fmt.Errorf("--image is only available for characters")
			}

			var afterRender func([]catalog.Row)
			if image {
				afterRender = a.imageHook(cmd)
			}

			return a.run(cmd, dispatch.Command{
				Name:        dispatch.CommandGet,
				Collections: []catalog.Collection{collection},
				ID:          id,
			}, a.format(), afterRender)
		}),
	}

	cmd.Flags().BoolVarP(&image, "image", "i", false, "download the character image")

	return cmd
}
