package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Insert returns ErrAlreadyVoted when the voter already voted on the report
	// and ErrReportNotResolved when the report left resolved before the write.
	Insert(ctx context.Context, c Confirmation) error
	// Tally counts votes cast at or after since.
	Tally(ctx context.Context, reportID snowflake.ID, since time.Time) (Tally, error)
	FindVote(ctx context.Context, reportID, userID snowflake.ID) (*Confirmation, error)
}
