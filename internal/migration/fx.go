package migration

import (
	"github.com/smallbiznis/civicpulse/internal/config"
	pkgdb "github.com/smallbiznis/civicpulse/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		typ, err := pkgdb.NormalizeType(cfg.DBType)
		if err != nil {
			return err
		}
		if typ == pkgdb.TypeSQLite {
			log.Info("applying sqlite schema")
			return ApplySQLiteSchema(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
