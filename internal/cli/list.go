package cli

import (
	"github.com/Sternrassler/wubba/pkg/catalog"
	"github.com/Sternrassler/wubba/pkg/dispatch"
	"github.com/spf13/cobra"
)

func (a *app) newListCmd() *cobra.Command {
	var characters, locations, episodes bool

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List every record of one or more collections",
		Long: `List every record of the selected collections, fetching all pages.
Without flags all three collections are listed.

The table flag is ignored; records are always printed as JSON or YAML.

Examples:
  wubba ls
  wubba ls -c
  wubba ls -l -e -o yaml`,
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			var collections []catalog.Collection
			if characters {
				collections = append(collections, catalog.CollectionCharacter)
			}
			if locations {
				collections = append(collections, catalog.CollectionLocation)
			}
			if episodes {
				collections = append(collections, catalog.CollectionEpisode)
			}

			format := a.format()
			if format == formatTable {
				format = formatJSON
			}

			return a.run(cmd, dispatch.Command{
				Name:        dispatch.CommandList,
				Collections: collections,
			}, format, nil)
		}),
	}

	cmd.Flags().BoolVarP(&characters, "character", "c", false, "list characters")
	cmd.Flags().BoolVarP(&locations, "location", "l", false, "list locations")
	cmd.Flags().BoolVarP(&episodes, "episode", "e", false, "list episodes")

	return cmd
}
