package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGardenCmd() *cobra.Command {
	gardenCmd := &cobra.Command{
		Use:   "garden",
		Short: "Show and resize the garden",
	}
	gardenShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Draw the garden with the latest version restored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			st := engine.State()
			renderGarden(rt.out, st)
			fmt.Fprintln(rt.out)
			renderPlots(rt.out, st)
			return nil
		},
	}
	gardenResizeCmd := &cobra.Command{
		Use:   "resize ROWS COLS",
		Short: "Resize the garden; sides are clamped to 1..100",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, cols, err := parsePair(args[0], args[1])
			if err != nil {
				return err
			}
			engine, _, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			g, err := engine.ResizeGarden(cmd.Context(), rows, cols)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "garden is now %dx%d\n", g.Rows, g.Cols)
			return nil
		},
	}
	gardenCmd.AddCommand(gardenShowCmd, gardenResizeCmd)
	return gardenCmd
}

func parsePair(a, b string) (int, int, error) {
	x, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number %q", a)
	}
	y, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number %q", b)
	}
	return x, y, nil
}
