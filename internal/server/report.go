package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	confirmationdomain "github.com/smallbiznis/civicpulse/internal/confirmation/domain"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
)

func (s *Server) CreateReport(c *gin.Context) {
	var req reportdomain.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportSvc.Create(c.Request.Context(), currentActor(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetReport(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.reportSvc.Get(c.Request.Context(), id, currentActor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCommunityStats(c *gin.Context) {
	resp, err := s.reportSvc.CommunityStats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RequestStatusChange(c *gin.Context) {
	var req reportdomain.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		AbortWithError(c, newValidationError("status", "required", "status is required"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.reportSvc.RequestStatusChange(c.Request.Context(), id, req.Status, currentActor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CastVote(c *gin.Context) {
	var req confirmationdomain.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.confirmationSvc.CastVote(c.Request.Context(), id, currentActor(c), req.Vote)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetTally(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.confirmationSvc.GetTally(c.Request.Context(), id, currentActor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ToggleFollow(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.followSvc.Toggle(c.Request.Context(), id, currentActor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
