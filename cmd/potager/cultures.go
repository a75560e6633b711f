package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"potager/internal/planner"
	"potager/pkg/domain"
)

func newCulturesCmd() *cobra.Command {
	culturesCmd := &cobra.Command{
		Use:     "cultures",
		Aliases: []string{"culture"},
		Short:   "Manage cultures and their calendar",
	}
	culturesListCmd := &cobra.Command{
		Use:   "list",
		Short: "List cultures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, closeFn, err := openAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			cultures, err := api.ListCultures(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range cultures {
				fmt.Fprintf(rt.out, "%s %s\t%s\t%s\tsow %s\n", c.Emoji, c.ID, c.Name, c.CultivationType, c.SowDate)
			}
			return nil
		},
	}
	culturesAddCmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a culture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			c := domain.Culture{Name: args[0]}
			c.SowDate, _ = flags.GetString("sow")
			c.TransplantDate, _ = flags.GetString("transplant")
			c.HarvestDate, _ = flags.GetString("harvest")
			c.CultivationType, _ = flags.GetString("type")
			c.Emoji, _ = flags.GetString("emoji")
			c.Color, _ = flags.GetString("color")
			c.Comment, _ = flags.GetString("comment")

			api, closeFn, err := openAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			created, err := api.CreateCulture(cmd.Context(), c)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "created culture %s\n", created.ID)
			return nil
		},
	}
	culturesImportCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a JSON array of cultures; nothing is stored if one is invalid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var cultures []domain.Culture
			if err := json.Unmarshal(data, &cultures); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			api, closeFn, err := openAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			created, err := api.ImportCultures(cmd.Context(), cultures)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "imported %d cultures\n", len(created))
			return nil
		},
	}
	culturesDeleteCmd := &cobra.Command{
		Use:   "delete CULTURE_ID",
		Short: "Delete a culture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, closeFn, err := openAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			if err := api.DeleteCulture(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "deleted culture %s\n", args[0])
			return nil
		},
	}
	calendarCmd := &cobra.Command{
		Use:   "calendar CULTURE_ID",
		Short: "Print a culture's yearly calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, _ := cmd.Flags().GetInt("year")
			api, closeFn, err := openAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			cultures, err := api.ListCultures(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range cultures {
				if c.ID != args[0] {
					continue
				}
				if year == 0 {
					year = calendarYear(c)
				}
				renderCalendar(rt.out, c, planner.Calendar(c, year))
				return nil
			}
			return fmt.Errorf("culture %s not found", args[0])
		},
	}
	f := culturesAddCmd.Flags()
	f.String("sow", "", "sow date (YYYY-MM-DD)")
	f.String("transplant", "", "transplant date (YYYY-MM-DD)")
	f.String("harvest", "", "harvest date (YYYY-MM-DD)")
	f.String("type", "", "cultivation type")
	f.String("emoji", "", "display emoji")
	f.String("color", "", "display color (default #4CAF50)")
	f.String("comment", "", "free-form comment")
	calendarCmd.Flags().Int("year", 0, "calendar year (default: year of the sow date)")
	culturesCmd.AddCommand(culturesListCmd, culturesAddCmd, culturesImportCmd, culturesDeleteCmd, calendarCmd)
	return culturesCmd
}

func newDeadlinesCmd() *cobra.Command {
	deadlinesCmd := &cobra.Command{
		Use:   "deadlines",
		Short: "List culture milestones due in the next 15 days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			renderDeadlines(rt.out, engine.UpcomingDeadlines())
			return nil
		},
	}
	return deadlinesCmd
}

// calendarYear defaults to the year of the sow date.
func calendarYear(c domain.Culture) int {
	if sow, ok := planner.ParseDate(c.SowDate); ok {
		return sow.Year()
	}
	return planner.Day(timeNow()).Year()
}

