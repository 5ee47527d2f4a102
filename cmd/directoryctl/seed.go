package main

import (
	"fmt"

	"github.com/ogurasousui/employee-directory/internal/adapters/repository/postgres"
	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"github.com/ogurasousui/employee-directory/internal/platform/bootstrap"
	pg "github.com/ogurasousui/employee-directory/internal/platform/db/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample employees when the directory is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, logger, err := bootstrap.Load(ctx, bootstrap.ConfigPath(configPath))
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			pool, err := pg.NewPool(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := employee.NewService(
				postgres.NewEmployeeRepository(pool),
				postgres.NewAuditRepository(pool),
				nil,
				pg.NewTransactionManager(pool),
			)

			n, err := svc.Seed(ctx, employee.SamplePayloads(), employee.SeedActor)
			if err != nil {
				return fmt.Errorf("seed sample employees: %w", err)
			}
			if n == 0 {
				logger.Info("employees already exist, skipping sample data")
				return nil
			}
			logger.Info("sample data added", zap.Int("employees", n))
			return nil
		},
	}
}
