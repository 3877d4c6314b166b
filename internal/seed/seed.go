package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/config"
	userdomain "github.com/smallbiznis/civicpulse/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EnsureAdmin creates an administrator named displayName unless one already
// exists. It returns the admin's id and whether a row was created.
func EnsureAdmin(ctx context.Context, db *gorm.DB, node *snowflake.Node, displayName string) (snowflake.ID, bool, error) {
	if db == nil || node == nil {
		return 0, false, errors.New("seed database handle is required")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return 0, false, userdomain.ErrInvalidDisplayName
	}

	var (
		adminID snowflake.ID
		created bool
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing userdomain.User
		err := tx.WithContext(ctx).
			Where("role = ?", userdomain.RoleAdmin).
			Order("id ASC").
			First(&existing).Error
		if err == nil {
			adminID = existing.ID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		admin := userdomain.User{
			ID:          node.Generate(),
			DisplayName: displayName,
			Role:        userdomain.RoleAdmin,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.WithContext(ctx).Create(&admin).Error; err != nil {
			return err
		}
		adminID = admin.ID
		created = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return adminID, created, nil
}

var Module = fx.Module("seed",
	fx.Invoke(bootstrapAdmin),
)

func bootstrapAdmin(lc fx.Lifecycle, cfg config.Config, db *gorm.DB, node *snowflake.Node, log *zap.Logger) {
	if strings.TrimSpace(cfg.BootstrapAdminName) == "" {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			id, created, err := EnsureAdmin(ctx, db, node, cfg.BootstrapAdminName)
			if err != nil {
				return err
			}
			if created {
				log.Info("bootstrap admin created", zap.String("user_id", id.String()))
			}
			return nil
		},
	})
}
