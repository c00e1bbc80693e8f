package main

import (
	"encoding/json"
	"os"

	"github.com/lshigami/mockdrive/internal/service"
	"github.com/spf13/cobra"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Maintain the content of finished mock drives",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Promote good questions and problems of a drive to the permanent bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		driveID, _ := cmd.Flags().GetUint("drive")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		minQuality, _ := cmd.Flags().GetFloat64("min-quality")

		return runOnce(cmd.Context(), func(migration service.MigrationService) error {
			th := migration.Defaults()
			if cmd.Flags().Changed("min-quality") {
				th.MinQuality = minQuality
			}
			report, err := migration.Migrate(cmd.Context(), driveID, th, dryRun)
			if err != nil {
				return err
			}
			return printJSON(report)
		})
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Soft-delete worthless un-migrated content of a drive",
	RunE: func(cmd *cobra.Command, args []string) error {
		driveID, _ := cmd.Flags().GetUint("drive")
		preserve, _ := cmd.Flags().GetBool("preserve")

		return runOnce(cmd.Context(), func(migration service.MigrationService) error {
			report, err := migration.Cleanup(cmd.Context(), driveID, preserve)
			if err != nil {
				return err
			}
			return printJSON(report)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{migrateCmd, cleanupCmd} {
		c.Flags().Uint("drive", 0, "Mock drive ID")
		_ = c.MarkFlagRequired("drive")
	}
	migrateCmd.Flags().Bool("dry-run", false, "Report what would be migrated without writing")
	migrateCmd.Flags().Float64("min-quality", 0, "Override the minimum quality score (0-1)")
	cleanupCmd.Flags().Bool("preserve", false, "Keep items scoring above the quality threshold")

	contentCmd.AddCommand(migrateCmd)
	contentCmd.AddCommand(cleanupCmd)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
