package server

import (
	"net/http"

	"github.com/acknowledge-dev/acknowledge/internal/linear"
	obscontext "github.com/acknowledge-dev/acknowledge/internal/observability/context"
	"github.com/gin-gonic/gin"
)

// HandleLinearWebhook drives the claim pipeline for one inbound delivery.
// Every processed-or-ignored event acknowledges with 200 so Linear stops
// redelivering; hard failures return an error status and rely on
// at-least-once redelivery as the retry mechanism.
func (s *Server) HandleLinearWebhook(c *gin.Context) {
	var event linear.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ctx := obscontext.WithOrgID(c.Request.Context(), event.OrganizationID)

	update, ok := linear.ClassifyIssueUpdate(event)
	if !ok {
		s.obsMetrics.RecordWebhookEvent(ctx, "ignored")
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	outcome, err := s.rewardSvc.ProcessIssueEvent(ctx, *update)
	if err != nil {
		s.obsMetrics.RecordWebhookEvent(ctx, "error")
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.RecordWebhookEvent(ctx, string(outcome))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
