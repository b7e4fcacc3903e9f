package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicops/clinic/internal/platform/auth"
)

// AuditEntry records who did what to which clinical or financial record.
type AuditEntry struct {
	ActorID    string
	Role       string
	Resource   string
	ResourceID string
	Action     string // read, list, create, update, delete, or a named operation
	Method     string
	Path       string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// AuditRecorder persists audit entries. A nil recorder means log-only.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every /api/v1 request after the handler has run, so the
// recorded status reflects the outcome. Login is excluded to keep
// credentials-bearing requests out of the trail.
func Audit(logger zerolog.Logger, recorder AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if !isAuditablePath(path) {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Method:     req.Method,
				Path:       path,
				IPAddress:  c.RealIP(),
				StatusCode: c.Response().Status,
			}
			if he, ok := err.(*echo.HTTPError); ok {
				entry.StatusCode = he.Code
			}
			if actor, aerr := auth.ActorFromContext(req.Context()); aerr == nil {
				entry.Role = actor.Role
				if actor.IsStaff() {
					entry.ActorID = actor.StaffID.String()
				}
			}
			entry.RequestID, _ = c.Get("request_id").(string)
			entry.Resource, entry.ResourceID, entry.Action = classify(req.Method, path)

			if recorder != nil {
				if recErr := recorder.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).Str("request_id", entry.RequestID).Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("actor_id", entry.ActorID).
				Str("role", entry.Role).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("record_access")

			return err
		}
	}
}

const apiPrefix = "/api/v1/"

func isAuditablePath(path string) bool {
	return strings.HasPrefix(path, apiPrefix) && path != apiPrefix+"auth/login"
}

// classify splits /api/v1/<resource>[/<id>[/<op>]] into its parts and names
// the action. A trailing segment after an id is a named operation such as
// "dispense" or "adjust_stock".
func classify(method, path string) (resource, id, action string) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, apiPrefix), "/"), "/")
	resource = parts[0]
	if len(parts) > 1 && isUUIDLike(parts[1]) {
		id = parts[1]
	}
	if len(parts) > 2 {
		return resource, id, parts[2]
	}
	switch method {
	case http.MethodGet, http.MethodHead:
		if id != "" {
			return resource, id, "read"
		}
		return resource, id, "list"
	case http.MethodPost:
		return resource, id, "create"
	case http.MethodPut, http.MethodPatch:
		return resource, id, "update"
	case http.MethodDelete:
		return resource, id, "delete"
	}
	return resource, id, strings.ToLower(method)
}

func isUUIDLike(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
