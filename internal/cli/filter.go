package cli

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/wubba/pkg/catalog"
	"github.com/Sternrassler/wubba/pkg/dispatch"
	"github.com/Sternrassler/wubba/pkg/filter"
	"github.com/spf13/cobra"
)

var (
	statusChoices = []string{"Alive", "Dead", "unknown"}
	genderChoices = []string{"Female", "Male", "Genderless", "unknown"}
)

func (a *app) newFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Filter a collection",
		Long: `Filter a collection. Criteria the API supports are sent as query
parameters; the rest are evaluated locally on the fetched records.`,
	}

	cmd.AddCommand(a.newFilterCharacterCmd())
	cmd.AddCommand(a.newFilterLocationCmd())
	cmd.AddCommand(a.newFilterEpisodeCmd())

	return cmd
}

func (a *app) newFilterCharacterCmd() *cobra.Command {
	var (
		criteria filter.CharacterCriteria
		image    bool
	)

	cmd := &cobra.Command{
		Use:   "character",
		Short: "Filter characters",
		Long: `Filter characters. name, status, species, type and gender are matched by
the API; origin and location must equal the reference name exactly.

Examples:
  wubba filter character --name rick --status Alive
  wubba filter character --origin "Earth (C-137)" -t
  wubba filter character --name "Rick Sanchez" --species Human -i`,
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if err := checkChoice("status", criteria.Status, statusChoices); err != nil {
				return err
			}
			if err := checkChoice("gender", criteria.Gender, genderChoices); err != nil {
				return err
			}

			var afterRender func([]catalog.Row)
			if image {
				afterRender = a.imageHook(cmd)
			}

			return a.run(cmd, dispatch.Command{
				Name:        dispatch.CommandFilter,
				Collections: []catalog.Collection{catalog.CollectionCharacter},
				Criteria:    criteria.Criteria(),
			}, a.format(), afterRender)
		}),
	}

	flags := cmd.Flags()
	flags.StringVar(&criteria.Name, "name", "", "character name")
	flags.StringVar(&criteria.Status, "status", "", "status: "+strings.Join(statusChoices, ", "))
	flags.StringVar(&criteria.Species, "species", "", "species")
	flags.StringVar(&criteria.Type, "type", "", "type or subspecies")
	flags.StringVar(&criteria.Gender, "gender", "", "gender: "+strings.Join(genderChoices, ", "))
	flags.StringVar(&criteria.Origin, "origin", "", "origin location name")
	flags.StringVar(&criteria.Location, "location", "", "current location name")
	flags.BoolVarP(&image, "image", "i", false, "download the image of the single matching character")

	return cmd
}

func (a *app) newFilterLocationCmd() *cobra.Command {
	var criteria filter.LocationCriteria

	cmd := &cobra.Command{
		Use:   "location",
		Short: "Filter locations",
		Long: `Filter locations by name, dimension and type.

Examples:
  wubba filter location --name earth
  wubba filter location --dimension "Dimension C-137" -t`,
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, dispatch.Command{
				Name:        dispatch.CommandFilter,
				Collections: []catalog.Collection{catalog.CollectionLocation},
				Criteria:    criteria.Criteria(),
			}, a.format(), nil)
		}),
	}

	flags := cmd.Flags()
	flags.StringVar(&criteria.Name, "name", "", "location name")
	flags.StringVar(&criteria.Dimension, "dimension", "", "dimension")
	flags.StringVar(&criteria.Type, "type", "", "location type")

	return cmd
}

func (a *app) newFilterEpisodeCmd() *cobra.Command {
	var criteria filter.EpisodeCriteria

	cmd := &cobra.Command{
		Use:   "episode",
		Short: "Filter episodes",
		Long: `Filter episodes. Only the name is matched by the API; code, air date
range, season and episode number are evaluated locally.

Dates are day/month/year. An episode passes --after and --before only when it
aired strictly after and strictly before the given dates.

Examples:
  wubba filter episode -s 3
  wubba filter episode -a 01/01/2015 -b 01/01/2018 -t
  wubba filter episode -c S01E01`,
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if criteria.Season < 0 || criteria.Episode < 0 {
				return fmt.Errorf("season and episode must not be negative")
			}

			return a.run(cmd, dispatch.Command{
				Name:        dispatch.CommandFilter,
				Collections: []catalog.Collection{catalog.CollectionEpisode},
				Criteria:    criteria.Criteria(),
			}, a.format(), nil)
		}),
	}

	flags := cmd.Flags()
	flags.StringVarP(&criteria.Name, "name", "n", "", "episode name")
	flags.StringVarP(&criteria.Code, "code", "c", "", "episode code, e.g. S01E01")
	flags.StringVarP(&criteria.Before, "before", "b", "", "aired before this date (dd/mm/yyyy)")
	flags.StringVarP(&criteria.After, "after", "a", "", "aired after this date (dd/mm/yyyy)")
	flags.IntVarP(&criteria.Season, "season", "s", 0, "season number")
	flags.IntVarP(&criteria.Episode, "episode", "e", 0, "episode number within the season")

	return cmd
}

// checkChoice rejects a value outside choices. Empty means unset.
func checkChoice(flag, value string, choices []string) error {
	if value == "" {
		return nil
	}
	for _, c := range choices {
		if value == c {
			return nil
		}
	}
	return fmt.Errorf("invalid --%s %q (choose from %s)", flag, value, strings.Join(choices, ", "))
}
