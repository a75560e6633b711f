package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newVersionsCmd() *cobra.Command {
	versionsCmd := &cobra.Command{
		Use:     "versions",
		Aliases: []string{"version"},
		Short:   "Snapshot, restore, export and import garden versions",
	}
	versionsListCmd := &cobra.Command{
		Use:   "list",
		Short: "List versions, newest first; * marks the restored one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			renderVersions(rt.out, engine.Versions(), engine.State().CurrentVersion)
			return nil
		},
	}
	versionsCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Snapshot the current garden",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			engine, _, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			v, err := engine.CreateVersion(cmd.Context(), func() (string, bool) { return name, true })
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "created version %s (%s)\n", v.ID, v.Name)
			return nil
		},
	}
	versionsRestoreCmd := &cobra.Command{
		Use:   "restore VERSION_ID",
		Short: "Show the garden as saved in a version",
		Long: "Restore replaces the planner's plots, positions and grids with the version's. " +
			"The stored garden is not rewritten until a cell, plot or position is edited.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			if err := engine.RestoreVersion(args[0]); err != nil {
				return err
			}
			st := engine.State()
			renderGarden(rt.out, st)
			fmt.Fprintln(rt.out)
			renderPlots(rt.out, st)
			return nil
		},
	}
	versionsExportCmd := &cobra.Command{
		Use:   "export VERSION_ID",
		Short: "Write a version document to stdout or --output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			api, closeFn, err := openAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			var w io.Writer = rt.out
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			url, err := api.ExportVersion(cmd.Context(), args[0], w)
			if err != nil {
				return err
			}
			if url != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "archived at %s\n", url)
			}
			return nil
		},
	}
	versionsImportCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a version document as a new version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			engine, _, closeFn, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			v, err := engine.ImportVersion(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "imported version %s (%s)\n", v.ID, v.Name)
			return nil
		},
	}
	versionsCreateCmd.Flags().String("name", "", "version name (default: timestamp)")
	versionsExportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	versionsCmd.AddCommand(versionsListCmd, versionsCreateCmd, versionsRestoreCmd, versionsExportCmd, versionsImportCmd)
	return versionsCmd
}

