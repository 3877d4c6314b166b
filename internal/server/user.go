package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	notificationdomain "github.com/smallbiznis/civicpulse/internal/notification/domain"
	userdomain "github.com/smallbiznis/civicpulse/internal/user/domain"
	"github.com/smallbiznis/civicpulse/pkg/db/pagination"
)

type createUserRequest struct {
	DisplayName string `json:"display_name"`
}

// CreateUser registers a citizen profile. Roles cannot be chosen here;
// administrators are provisioned out of band.
func (s *Server) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.userSvc.Create(c.Request.Context(), userdomain.CreateUserRequest{
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        userdomain.RoleUser,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateDisplayName(c *gin.Context) {
	var req userdomain.UpdateDisplayNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.userSvc.UpdateDisplayName(c.Request.Context(), currentActor(c), req.DisplayName)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.userSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetGamificationSummary(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.gamificationSvc.Summary(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListNotifications(c *gin.Context) {
	var query struct {
		pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.notificationSvc.List(c.Request.Context(), currentActor(c).UserID, notificationdomain.ListNotificationRequest{
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkAllNotificationsRead(c *gin.Context) {
	updated, err := s.notificationSvc.MarkAllRead(c.Request.Context(), currentActor(c).UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": updated}})
}

func (s *Server) MarkNotificationRead(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.notificationSvc.MarkRead(c.Request.Context(), currentActor(c).UserID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
