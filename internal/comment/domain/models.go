package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
	"github.com/smallbiznis/civicpulse/pkg/db/pagination"
	"gorm.io/gorm"
)

const MaxContentLength = 1000

var (
	ErrInvalidReport    = errors.New("invalid_report")
	ErrInvalidContent   = errors.New("invalid_comment_content")
	ErrCommentsLocked   = errors.New("comments_locked")
	ErrCommentNotFound  = errors.New("comment_not_found")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)

type Comment struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ReportID  snowflake.ID `gorm:"not null;index" json:"report_id"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Comment) TableName() string { return "comments" }

type Repository interface {
	Insert(ctx context.Context, c Comment) error
	FindByID(ctx context.Context, id snowflake.ID) (*Comment, error)
	// ListByReport returns comments oldest first, starting after afterID.
	ListByReport(ctx context.Context, reportID, afterID snowflake.ID, limit int) ([]*Comment, error)
	WithTx(tx *gorm.DB) Repository
}

type Service interface {
	Add(ctx context.Context, reportID string, a actor.Actor, req CreateCommentRequest) (*Comment, error)
	List(ctx context.Context, reportID string, viewer actor.Actor, req ListCommentRequest) (ListCommentResponse, error)
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}

type ListCommentRequest struct {
	pagination.Pagination
}

type ListCommentResponse struct {
	Comments []*Comment          `json:"comments"`
	PageInfo pagination.PageInfo `json:"page_info"`
}
