package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/civicpulse/internal/actor"
	auditdomain "github.com/smallbiznis/civicpulse/internal/audit/domain"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
)

type reportModeration func(ctx context.Context, reportID string, a actor.Actor) (*reportdomain.Report, error)

func (s *Server) moderateReport(c *gin.Context, fn reportModeration) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := fn(c.Request.Context(), id, currentActor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) HideReport(c *gin.Context) {
	s.moderateReport(c, s.moderationSvc.HideReport)
}

func (s *Server) UnhideReport(c *gin.Context) {
	s.moderateReport(c, s.moderationSvc.UnhideReport)
}

func (s *Server) LockComments(c *gin.Context) {
	s.moderateReport(c, s.moderationSvc.LockComments)
}

func (s *Server) UnlockComments(c *gin.Context) {
	s.moderateReport(c, s.moderationSvc.UnlockComments)
}

func (s *Server) BanUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.moderationSvc.BanUser(c.Request.Context(), id, currentActor(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) UnbanUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.moderationSvc.UnbanUser(c.Request.Context(), id, currentActor(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ListFlags(c *gin.Context) {
	resp, err := s.moderationSvc.ListFlags(c.Request.Context(), currentActor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetStats(c *gin.Context) {
	resp, err := s.moderationSvc.Stats(c.Request.Context(), currentActor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAuditLogs(c *gin.Context) {
	var query auditdomain.ListAuditLogRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), currentActor(c), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
