package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/civicpulse/internal/actor"
	auditdomain "github.com/smallbiznis/civicpulse/internal/audit/domain"
	"github.com/smallbiznis/civicpulse/internal/authorization"
	commentdomain "github.com/smallbiznis/civicpulse/internal/comment/domain"
	confirmationdomain "github.com/smallbiznis/civicpulse/internal/confirmation/domain"
	followdomain "github.com/smallbiznis/civicpulse/internal/follow/domain"
	gamificationdomain "github.com/smallbiznis/civicpulse/internal/gamification/domain"
	moderationdomain "github.com/smallbiznis/civicpulse/internal/moderation/domain"
	notificationdomain "github.com/smallbiznis/civicpulse/internal/notification/domain"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
	userdomain "github.com/smallbiznis/civicpulse/internal/user/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

// userMessages holds the copy shown to citizens for errors they can act on.
var userMessages = map[error]string{
	actor.ErrAccountSuspended:                  "your account has been suspended",
	confirmationdomain.ErrAlreadyVoted:         "you have already voted",
	confirmationdomain.ErrReportNotResolved:    "this report is not awaiting confirmation",
	commentdomain.ErrCommentsLocked:            "comments are locked on this report",
	reportdomain.ErrInvalidTransition:          "this status change is not allowed",
	reportdomain.ErrStatusConflict:             "the report changed while you were updating it, please reload",
	reportdomain.ErrNotAuthorized:              "you are not allowed to change this report",
	reportdomain.ErrReportNotFound:             "report not found",
	commentdomain.ErrCommentNotFound:           "comment not found",
	userdomain.ErrUserNotFound:                 "user not found",
	notificationdomain.ErrNotificationNotFound: "notification not found",
	ErrRateLimited:                             "too many requests, please slow down",
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: userMessage(err, "forbidden"),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: userMessage(err, "conflict"),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: userMessage(err, "not found"),
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: userMessage(err, "rate limited"),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "something went wrong, please try again",
		}
	}
}

// classifyErrorForLog feeds the request logger with a low-cardinality type
// and the sentinel code.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	code := payload.Type
	if payload.Type != "internal_error" {
		code = err.Error()
	}
	if vErr := asValidationErrors(err); vErr != nil && len(vErr.Errors) > 0 {
		code = vErr.Errors[0].Code
	}
	return payload.Type, code
}

func userMessage(err error, fallback string) string {
	for sentinel, message := range userMessages {
		if errors.Is(err, sentinel) {
			return message
		}
	}
	return fallback
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isReportValidationError(err),
		isConfirmationValidationError(err),
		isCommentValidationError(err),
		isModerationValidationError(err),
		isUserValidationError(err),
		isNotificationValidationError(err),
		isAuditValidationError(err),
		errors.Is(err, followdomain.ErrInvalidReport),
		errors.Is(err, gamificationdomain.ErrInvalidUser):
		return true
	default:
		return false
	}
}

func isReportValidationError(err error) bool {
	switch {
	case errors.Is(err, reportdomain.ErrInvalidReport),
		errors.Is(err, reportdomain.ErrInvalidStatus),
		errors.Is(err, reportdomain.ErrInvalidTitle),
		errors.Is(err, reportdomain.ErrInvalidDescription),
		errors.Is(err, reportdomain.ErrInvalidCategory),
		errors.Is(err, reportdomain.ErrInvalidCoordinates):
		return true
	default:
		return false
	}
}

func isConfirmationValidationError(err error) bool {
	return errors.Is(err, confirmationdomain.ErrInvalidReport) ||
		errors.Is(err, confirmationdomain.ErrInvalidVote)
}

func isCommentValidationError(err error) bool {
	return errors.Is(err, commentdomain.ErrInvalidReport) ||
		errors.Is(err, commentdomain.ErrInvalidContent) ||
		errors.Is(err, commentdomain.ErrInvalidPageToken)
}

func isModerationValidationError(err error) bool {
	return errors.Is(err, moderationdomain.ErrInvalidTarget) ||
		errors.Is(err, moderationdomain.ErrInvalidReason) ||
		errors.Is(err, moderationdomain.ErrInvalidUser)
}

func isUserValidationError(err error) bool {
	return errors.Is(err, userdomain.ErrInvalidUser) ||
		errors.Is(err, userdomain.ErrInvalidDisplayName) ||
		errors.Is(err, userdomain.ErrInvalidRole)
}

func isNotificationValidationError(err error) bool {
	return errors.Is(err, notificationdomain.ErrInvalidNotification) ||
		errors.Is(err, notificationdomain.ErrInvalidPageToken)
}

func isAuditValidationError(err error) bool {
	return errors.Is(err, auditdomain.ErrInvalidPageToken) ||
		errors.Is(err, auditdomain.ErrInvalidTimeRange) ||
		errors.Is(err, auditdomain.ErrInvalidAction)
}

func isUnauthorizedError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, actor.ErrNotAuthenticated)
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, actor.ErrAccountSuspended),
		errors.Is(err, reportdomain.ErrNotAuthorized),
		errors.Is(err, commentdomain.ErrCommentsLocked):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, reportdomain.ErrInvalidTransition),
		errors.Is(err, reportdomain.ErrStatusConflict),
		errors.Is(err, confirmationdomain.ErrAlreadyVoted),
		errors.Is(err, confirmationdomain.ErrReportNotResolved):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, reportdomain.ErrReportNotFound),
		errors.Is(err, commentdomain.ErrCommentNotFound),
		errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, gamificationdomain.ErrUserNotFound),
		errors.Is(err, notificationdomain.ErrNotificationNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_title":
		return "title must be between 1 and 100 characters"
	case "invalid_description":
		return "description must be between 1 and 2000 characters"
	case "invalid_comment_content":
		return "comment must be between 1 and 1000 characters"
	case "invalid_flag_reason":
		return "reason must be between 1 and 500 characters"
	case "invalid_vote":
		return "vote must be confirmed or not_yet"
	default:
		return "invalid value"
	}
}
