package bootstrap

import (
	"context"
	"os"

	"github.com/ogurasousui/employee-directory/internal/platform/config"
	"github.com/ogurasousui/employee-directory/internal/platform/logging"
	"github.com/ogurasousui/employee-directory/internal/platform/secrets"
	"go.uber.org/zap"
)

const defaultConfigPath = "assets/local.yaml"

// ConfigPath はフラグ、CONFIG_PATH、既定値の順に設定ファイルのパスを決定します。
func ConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return defaultConfigPath
}

// Load は設定ファイルを読み込み、ロガーを構築し、有効であれば Secrets Manager の値で設定を上書きします。
func Load(ctx context.Context, path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Secrets.Enabled {
		provider, err := secrets.NewAWSProvider(ctx, cfg.Secrets.Region)
		if err != nil {
			logger.Warn("secrets manager unavailable, using configured values", zap.Error(err))
		} else {
			secrets.Apply(ctx, provider, cfg, logger)
		}
	}

	return cfg, logger, nil
}
