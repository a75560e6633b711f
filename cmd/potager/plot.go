package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlotCmd() *cobra.Command {
	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "Create, move, edit and delete plots",
	}
	plotCreateCmd := &cobra.Command{
		Use:   "create NAME ROWS COLS",
		Short: "Create an empty plot; sides are clamped to 1..20",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, cols, err := parsePair(args[1], args[2])
			if err != nil {
				return err
			}
			engine, _, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			p, err := engine.CreatePlot(cmd.Context(), args[0], rows, cols)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "created plot %s (%s, %dx%d)\n", p.ID, p.Name, p.Rows, p.Cols)
			return nil
		},
	}
	plotDeleteCmd := &cobra.Command{
		Use:   "delete PLOT_ID",
		Short: "Delete a plot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			if err := engine.DeletePlot(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "deleted plot %s\n", args[0])
			return nil
		},
	}
	plotMoveCmd := &cobra.Command{
		Use:   "move PLOT_ID ROW COL",
		Short: "Anchor a plot's top-left corner on a garden cell",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, col, err := parsePair(args[1], args[2])
			if err != nil {
				return err
			}
			engine, _, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			warnings, err := engine.MovePlot(cmd.Context(), args[0], row, col)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Fprintf(rt.out, "warning: %s\n", w.Message)
			}
			fmt.Fprintf(rt.out, "moved plot %s to %d,%d\n", args[0], row, col)
			return nil
		},
	}
	plotEditCmd := &cobra.Command{
		Use:   "edit ROW COL",
		Short: "Toggle a garden cell: clear a planted cell or plant the --crop",
		Long: "Edit resolves the garden cell to the plot covering it. A planted cell is cleared; " +
			"an empty cell receives the crop given with --crop.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, col, err := parsePair(args[0], args[1])
			if err != nil {
				return err
			}
			cropID, _ := cmd.Flags().GetString("crop")
			engine, _, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			if cropID != "" {
				if err := engine.SelectCrop(cropID); err != nil {
					return err
				}
			}
			cell, err := engine.EditGardenCell(cmd.Context(), row, col)
			if err != nil {
				return err
			}
			if cell == nil {
				fmt.Fprintf(rt.out, "cleared %d,%d\n", row, col)
				return nil
			}
			fmt.Fprintf(rt.out, "planted %s %s at %d,%d\n", cell.Emoji, cell.CropName, row, col)
			return nil
		},
	}
	plotEditCmd.Flags().String("crop", "", "crop id to plant in an empty cell")
	plotCmd.AddCommand(plotCreateCmd, plotDeleteCmd, plotMoveCmd, plotEditCmd)
	return plotCmd
}

func newCropsCmd() *cobra.Command {
	cropsCmd := &cobra.Command{
		Use:   "crops",
		Short: "List the crop catalog, most used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			api, closeFn, err := openAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			crops, err := api.PopularCrops(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, c := range crops {
				fmt.Fprintf(rt.out, "%s %s\t%s\t%d\n", c.Emoji, c.ID, c.Name, c.UsageCount)
			}
			return nil
		},
	}
	cropsCmd.Flags().Int("limit", 0, "show at most this many crops")
	return cropsCmd
}

