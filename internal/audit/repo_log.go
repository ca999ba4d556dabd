package audit

import (
	"context"
	"log/slog"
)

// LogRepo writes each event as a structured log line and keeps nothing in memory.
// It backs auditing when no database is configured.
type LogRepo struct {
	log *slog.Logger
}

func NewLogRepo(l *slog.Logger) *LogRepo {
	if l == nil {
		l = slog.Default()
	}
	return &LogRepo{log: l.With("component", "audit")}
}

func (r *LogRepo) Append(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.log.InfoContext(ctx, "audit event",
		"event_id", e.ID,
		"type", string(e.Type),
		"user_id", e.UserID,
		"email", e.Email,
		"ip", e.IPAddress,
		"user_agent", e.UserAgent,
		"request_id", e.RequestID,
		"message", e.Message,
		"created_at", e.CreatedAt,
	)
	return nil
}
