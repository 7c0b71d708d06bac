package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fiffu/framenotify/config"
	"github.com/fiffu/framenotify/lib/store"
)

func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	log.Info("Starting database and migrations", zap.String("path", cfg.DatabasePath))
	db, err := store.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	log.Info("Database started")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}
