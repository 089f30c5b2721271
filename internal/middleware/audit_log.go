package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/domain/model"
	"github.com/guttosm/hackathon-service/internal/service"
	"github.com/rs/zerolog"
)

// AuditLog records a state-changing action performed by the request's
// subject. It never blocks: events are dropped when the audit queue is full.
func AuditLog(audit service.AuditService, c *gin.Context, action, target string, fields map[string]any) {
	if audit == nil {
		return
	}

	event := &model.AuditEvent{
		Action:    action,
		Actor:     c.GetString(SubjectKey),
		Target:    target,
		RequestID: GetRequestID(c),
	}
	for k, v := range fields {
		event.WithField(k, v)
	}
	event.WithField("method", c.Request.Method).
		WithField("path", c.Request.URL.Path).
		WithField("ip", c.ClientIP())

	if !audit.Record(event) {
		zerolog.Ctx(c.Request.Context()).Warn().
			Str("action", action).
			Str("target", target).
			Msg("Audit queue full, event dropped")
	}
}

// AuditLogError records a failed action with its error.
func AuditLogError(audit service.AuditService, c *gin.Context, action, target string, err error, fields map[string]any) {
	if err == nil {
		AuditLog(audit, c, action, target, fields)
		return
	}
	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["error"] = err.Error()
	AuditLog(audit, c, action, target, merged)
}
