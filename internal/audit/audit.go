// Package audit records security-relevant events of the gateway: logins,
// logouts, permission loads and checkpoint denials.
package audit

import (
	"time"

	"admin-portal/internal/guard"
	"admin-portal/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Action is the kind of audited operation
type Action string

const (
	ActionNavigate       Action = "navigate"
	ActionLogin          Action = "login"
	ActionLogout         Action = "logout"
	ActionPermissionLoad Action = "permission_load"
)

// Status is the outcome of an audited operation
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusDenied  Status = "denied"
)

const (
	contextKeyRequestID = "request_id"
	eventTypePrefix     = "admin."
)

// Event is one audit record
type Event struct {
	ID           uuid.UUID
	EventType    string
	ActorID      string
	Route        string
	Action       Action
	Status       Status
	IPAddress    string
	UserAgent    string
	RequestID    string
	Metadata     map[string]any
	ErrorMessage string
	CreatedAt    time.Time
}

// Logger writes audit events as structured log entries
type Logger struct {
	log *zap.Logger
}

func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: log.Named("audit")}
}

// Log records event, filling in its id and timestamp when unset
func (l *Logger) Log(event *Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.EventType == "" {
		event.EventType = eventTypePrefix + string(event.Action) + "." + string(event.Status)
	}

	fields := []zap.Field{
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.EventType),
		zap.String("action", string(event.Action)),
		zap.String("status", string(event.Status)),
		zap.Time("created_at", event.CreatedAt),
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.Route != "" {
		fields = append(fields, zap.String("route", event.Route))
	}
	if event.IPAddress != "" {
		fields = append(fields, zap.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", logger.SanitizeMap(event.Metadata)))
	}
	if event.ErrorMessage != "" {
		fields = append(fields, zap.String("error", logger.SanitizeLogMessage(event.ErrorMessage)))
	}

	switch event.Status {
	case StatusSuccess:
		l.log.Info("audit event", fields...)
	default:
		l.log.Warn("audit event", fields...)
	}
}

// LogFromContext records an event enriched with the request's metadata
func (l *Logger) LogFromContext(c echo.Context, actorID string, action Action, status Status, metadata map[string]any) {
	l.Log(l.fromContext(c, actorID, action, status, metadata))
}

// LogError records a failed operation
func (l *Logger) LogError(c echo.Context, actorID string, action Action, err error) {
	event := l.fromContext(c, actorID, action, StatusFailure, nil)
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	l.Log(event)
}

// LogOutcome records the checkpoint outcome of a navigation. Denials are
// recorded with their diagnostic context; allows are recorded only when the
// route declared no requirement, so misconfigured routes stay visible.
func (l *Logger) LogOutcome(c echo.Context, actorID, route string, out guard.Outcome) {
	d := out.Decision
	switch {
	case d.Allowed() && d.Unchecked:
		l.log.Warn("route has no permission requirement",
			zap.String("route", route),
			zap.String("path", c.Request().URL.Path),
			zap.String("request_id", requestID(c)),
		)
	case d.Allowed():
		return
	default:
		metadata := map[string]any{
			"state":  out.State.String(),
			"reason": d.Reason,
		}
		if len(d.Required) > 0 {
			metadata["required_permissions"] = d.Required
		}
		if d.Redirect != nil {
			metadata["redirect"] = d.Redirect.Path
		}
		event := l.fromContext(c, actorID, ActionNavigate, StatusDenied, metadata)
		event.Route = route
		l.Log(event)
	}
}

func (l *Logger) fromContext(c echo.Context, actorID string, action Action, status Status, metadata map[string]any) *Event {
	req := c.Request()
	return &Event{
		ActorID:   actorID,
		Route:     c.Path(),
		Action:    action,
		Status:    status,
		IPAddress: c.RealIP(),
		UserAgent: req.UserAgent(),
		RequestID: requestID(c),
		Metadata:  metadata,
	}
}

func requestID(c echo.Context) string {
	if id, ok := c.Get(contextKeyRequestID).(string); ok {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
