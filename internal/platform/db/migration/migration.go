package migration

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Action はマイグレーション操作です。
type Action string

const (
	ActionUp      Action = "up"
	ActionDown    Action = "down"
	ActionDrop    Action = "drop"
	ActionVersion Action = "version"
)

// Status は適用済みバージョンの情報です。Applied が false の場合は未適用です。
type Status struct {
	Version uint
	Dirty   bool
	Applied bool
}

// Run は dir 内のマイグレーションを dsn のデータベースに対して実行します。
// 適用済みで変更がない場合はエラーになりません。
func Run(action Action, dir, dsn string) (Status, error) {
	m, err := open(dir, dsn)
	if err != nil {
		return Status{}, err
	}
	defer m.Close()

	switch action {
	case ActionUp:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return Status{}, err
		}
	case ActionDown:
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return Status{}, err
		}
	case ActionDrop:
		if err := m.Drop(); err != nil {
			return Status{}, err
		}
		return Status{}, nil
	case ActionVersion:
	default:
		return Status{}, fmt.Errorf("migration: unsupported action %q", action)
	}

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return Status{}, nil
		}
		return Status{}, err
	}
	return Status{Version: version, Dirty: dirty, Applied: true}, nil
}

func open(dir, dsn string) (*migrate.Migrate, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("migration: resolve path for %s: %w", dir, err)
	}
	absDir = filepath.ToSlash(absDir)

	m, err := migrate.New(fmt.Sprintf("file://%s", absDir), dsn)
	if err != nil {
		return nil, fmt.Errorf("migration: create migrate instance: %w", err)
	}
	return m, nil
}
