package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, user User) error
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	SetBanned(ctx context.Context, id snowflake.ID, banned bool, now time.Time) (bool, error)
	UpdateDisplayName(ctx context.Context, id snowflake.ID, name string, now time.Time) (bool, error)
}
