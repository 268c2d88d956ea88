package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type setAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

// HandleSetAPIKey stores the Linear API key used for profile lookups and
// attachment updates on behalf of a workspace.
func (s *Server) HandleSetAPIKey(c *gin.Context) {
	linearID := strings.TrimSpace(c.Param("linearId"))

	var req setAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	org, err := s.organizationSvc.SetAPIKey(c.Request.Context(), linearID, req.APIKey)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        org.ID.String(),
		"linear_id": org.LinearID,
	})
}

// HandleListPointLogs returns the append-only ledger for one account.
func (s *Server) HandleListPointLogs(c *gin.Context) {
	accountID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	entries, err := s.rewardSvc.ListPointLogs(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"point_logs": entries})
}
