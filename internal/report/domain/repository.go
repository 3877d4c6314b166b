package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, report Report) error
	FindByID(ctx context.Context, id snowflake.ID) (*Report, error)

	// AdvanceStatus moves the report from -> to only if it is still in from.
	// Entering resolved stamps the resolution fields.
	AdvanceStatus(ctx context.Context, id snowflake.ID, from, to Status, resolvedBy *snowflake.ID, now time.Time) (bool, error)
	CloseResolved(ctx context.Context, id snowflake.ID, now time.Time) (bool, error)
	RevertResolved(ctx context.Context, id snowflake.ID, now time.Time) (bool, error)
	// MarkStalled flags the current resolution cycle as stalled. It reports
	// false when the cycle was already flagged or the report left resolved.
	MarkStalled(ctx context.Context, id snowflake.ID, now time.Time) (bool, error)

	SetHidden(ctx context.Context, id snowflake.ID, hidden bool, now time.Time) (bool, error)
	SetCommentsLocked(ctx context.Context, id snowflake.ID, locked bool, now time.Time) (bool, error)
	AdjustFollowerCount(ctx context.Context, id snowflake.ID, delta int) error
	CountByStatus(ctx context.Context, includeHidden bool) (map[Status]int64, error)
}
