package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"

	"session-gateway/internal/audit"
	"session-gateway/pkg/logger"
)

// Auditor records authentication events. *audit.Service satisfies it.
type Auditor interface {
	Append(ctx context.Context, e audit.Event) error
}

// recordAudit fills request details and appends e. Failures are logged only.
func recordAudit(c *gin.Context, a Auditor, e audit.Event) {
	if a == nil {
		return
	}
	e.IPAddress = c.ClientIP()
	e.UserAgent = c.Request.UserAgent()
	e.RequestID = c.GetString("request_id")

	ctx := c.Request.Context()
	if err := a.Append(ctx, e); err != nil {
		logger.From(ctx).Warn("audit append failed", "type", string(e.Type), "err", err)
	}
}
