package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/huutix/storefront/internal/repository"
)

// auditLogMiddleware records every admin-console call as an audit event.
// It runs after basic auth, so the actor is always known.
func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := repository.AuditLogPayload{
			Event:     repository.EventAuditLog,
			Timestamp: time.Now().UTC(),
			Method:    r.Method,
			Path:      r.URL.Path,
			Handler:   adminHandlerName(r),
			Action:    adminAction(r.Method),
		}

		if username, _, ok := r.BasicAuth(); ok {
			entry.Actor = username
		}

		vars := mux.Vars(r)
		if id, ok := vars["id"]; ok {
			entry.EntityID = id
			entry.EntityType = adminEntityType(r.URL.Path)
		}

		arw := newAuditResponseWriter(w)
		next.ServeHTTP(arw, r)

		entry.StatusCode = arw.status
		entry.ResponseBytes = arw.bytes
		s.AuditManager.LogEntry(r.Context(), entry)
	})
}

func adminHandlerName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return r.Method + " " + tpl
		}
	}
	return r.Method + " " + r.URL.Path
}

func adminAction(method string) string {
	switch method {
	case http.MethodGet:
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return strings.ToLower(method)
}

func adminEntityType(path string) string {
	for _, entity := range []string{"orders", "payouts", "affiliates", "staff-requests", "coupons", "testimonials"} {
		if strings.Contains(path, "/"+entity+"/") {
			return entity
		}
	}
	return ""
}
