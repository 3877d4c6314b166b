package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
)

var (
	ErrInvalidReport      = errors.New("invalid_report")
	ErrReportNotFound     = errors.New("report_not_found")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrInvalidTransition  = errors.New("invalid_status_transition")
	ErrStatusConflict     = errors.New("report_status_conflict")
	ErrNotAuthorized      = errors.New("not_authorized")
	ErrInvalidTitle       = errors.New("invalid_title")
	ErrInvalidDescription = errors.New("invalid_description")
	ErrInvalidCategory    = errors.New("invalid_category")
	ErrInvalidCoordinates = errors.New("invalid_coordinates")
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 2000
)

type Service interface {
	Create(ctx context.Context, a actor.Actor, req CreateReportRequest) (*Report, error)
	Get(ctx context.Context, id string, viewer actor.Actor) (*Report, error)
	RequestStatusChange(ctx context.Context, id string, requested string, a actor.Actor) (*Report, error)
	// CommunityStats counts visible reports per status for the public dashboard.
	CommunityStats(ctx context.Context) (*CommunityStats, error)
}

type CommunityStats struct {
	Open       int64 `json:"open"`
	InProgress int64 `json:"in_progress"`
	Resolved   int64 `json:"resolved"`
	Closed     int64 `json:"closed"`
}

// ResolutionEvaluator runs the confirmation arbiter for a resolved report.
type ResolutionEvaluator interface {
	EvaluateResolution(ctx context.Context, reportID snowflake.ID, trigger string) error
}

type CreateReportRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	AreaName    string   `json:"area_name"`
	PhotoURL    string   `json:"photo_url"`
}

type StatusChangeRequest struct {
	Status string `json:"status"`
}
