package main

import (
	"fmt"

	"github.com/ogurasousui/employee-directory/internal/platform/bootstrap"
	"github.com/ogurasousui/employee-directory/internal/platform/db/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:       "migrate [up|down|drop|version]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(migration.ActionUp), string(migration.ActionDown), string(migration.ActionDrop), string(migration.ActionVersion)},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := migration.ActionUp
			if len(args) == 1 {
				action = migration.Action(args[0])
			}

			cfg, logger, err := bootstrap.Load(cmd.Context(), bootstrap.ConfigPath(configPath))
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			status, err := migration.Run(action, dir, cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("migration %s failed: %w", action, err)
			}

			if !status.Applied {
				logger.Info("no migration applied", zap.String("action", string(action)))
				return nil
			}
			logger.Info("migration completed",
				zap.String("action", string(action)),
				zap.Uint("version", status.Version),
				zap.Bool("dirty", status.Dirty),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "assets/migrations", "directory containing migration files")
	return cmd
}
