package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/avatar/pkg/convdb"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long: `Bring the conversation database up to the latest schema.

Running it against an up-to-date database is a no-op. The audio
directories are created alongside.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.EnsureDirs(); err != nil {
			return err
		}
		if err := convdb.Migrate(cmd.Context(), cfg.Database.Path); err != nil {
			return err
		}
		version, dirty, err := convdb.SchemaVersion(cfg.Database.Path)
		if err != nil {
			return err
		}
		getLogger().Info("db.migrated", "path", cfg.Database.Path, "version", version)
		return printResult(map[string]any{
			"path":    cfg.Database.Path,
			"version": version,
			"dirty":   dirty,
		})
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	rootCmd.AddCommand(dbCmd)
}
