package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/confirmation/domain"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
	"github.com/smallbiznis/civicpulse/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

// Insert records the vote against the report's current resolution cycle in a
// single statement. created_at is never earlier than resolved_at, so a voter
// whose clock trails the resolver's still lands in the cycle's tally.
func (r *repository) Insert(ctx context.Context, c domain.Confirmation) error {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO confirmations (id, report_id, user_id, vote, created_at)
		 SELECT ?, reports.id, ?, ?,
		        CASE WHEN reports.resolved_at > ? THEN reports.resolved_at ELSE ? END
		 FROM reports
		 WHERE reports.id = ?
		   AND reports.status = ?
		   AND reports.resolved_at IS NOT NULL
		 FOR SHARE`,
		c.ID,
		c.UserID,
		c.Vote,
		c.CreatedAt,
		c.CreatedAt,
		c.ReportID,
		reportdomain.StatusResolved,
	)
	if db.IsDuplicateKeyErr(result.Error) {
		return domain.ErrAlreadyVoted
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrReportNotResolved
	}
	return nil
}

func (r *repository) Tally(ctx context.Context, reportID snowflake.ID, since time.Time) (domain.Tally, error) {
	var rows []struct {
		Vote  domain.Vote
		Total int64
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT vote, COUNT(1) AS total
		 FROM confirmations
		 WHERE report_id = ? AND created_at >= ?
		 GROUP BY vote`,
		reportID,
		since,
	).Scan(&rows).Error
	if err != nil {
		return domain.Tally{}, err
	}

	var tally domain.Tally
	for _, row := range rows {
		switch row.Vote {
		case domain.VoteConfirmed:
			tally.Confirmed = row.Total
		case domain.VoteNotYet:
			tally.NotYet = row.Total
		}
	}
	return tally, nil
}

func (r *repository) FindVote(ctx context.Context, reportID, userID snowflake.ID) (*domain.Confirmation, error) {
	var c domain.Confirmation
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, report_id, user_id, vote, created_at
		 FROM confirmations
		 WHERE report_id = ? AND user_id = ?`,
		reportID,
		userID,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}
