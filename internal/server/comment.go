package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	commentdomain "github.com/smallbiznis/civicpulse/internal/comment/domain"
	moderationdomain "github.com/smallbiznis/civicpulse/internal/moderation/domain"
	"github.com/smallbiznis/civicpulse/pkg/db/pagination"
)

func (s *Server) AddComment(c *gin.Context) {
	var req commentdomain.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.commentSvc.Add(c.Request.Context(), id, currentActor(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListComments(c *gin.Context) {
	var query struct {
		pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.commentSvc.List(c.Request.Context(), id, currentActor(c), commentdomain.ListCommentRequest{
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) FlagReport(c *gin.Context) {
	var req moderationdomain.FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.moderationSvc.FlagReport(c.Request.Context(), id, currentActor(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) FlagComment(c *gin.Context) {
	var req moderationdomain.FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.moderationSvc.FlagComment(c.Request.Context(), id, currentActor(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
