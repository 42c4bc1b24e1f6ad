package cmd

import (
	"log/slog"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

var migrateFlags = withConfigFlag(map[string]cobraflags.Flag{})

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database tables",
		Args:  cobra.NoArgs,
		RunE:  migrateCommand,
	}
	cobraflags.RegisterMap(migrateCmd, migrateFlags)
	return migrateCmd
}

func migrateCommand(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(migrateFlags)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	slog.Info("database migrated", "driver", cfg.Database.Driver)
	return nil
}
