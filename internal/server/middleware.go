package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/claude/freeplan/internal/editor"
)

// Roles reported by /api/v1/me.
const (
	RoleCoach  = "coach"
	RoleViewer = "viewer"
)

// UserInfo identifies the caller of a request.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type contextKey int

const userInfoKey contextKey = iota

// userInfoFromContext returns the identity set by Identity.
func userInfoFromContext(r *http.Request) UserInfo {
	info, ok := r.Context().Value(userInfoKey).(UserInfo)
	if !ok {
		return UserInfo{Login: "anonymous", DisplayName: "Anonymous", Role: RoleViewer}
	}
	return info
}

func withIdentity(r *http.Request, info UserInfo, access editor.Access) *http.Request {
	ctx := context.WithValue(r.Context(), userInfoKey, info)
	return r.WithContext(editor.WithAccess(ctx, access))
}

// Identity authenticates the caller and stores its UserInfo and editor
// access in the request context. It accepts, in order: the X-API-Key header
// (coach), a viewer token as bearer token or "token" query parameter
// (read-only, scoped), and a tailnet login listed as coach.
func (s *Server) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("X-API-Key"); key != "" {
			if s.auth.APIKey == "" || !equalToken(key, s.auth.APIKey) {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid API key"})
				return
			}
			info := UserInfo{Login: "api-key", DisplayName: "API key", Role: RoleCoach}
			next.ServeHTTP(w, withIdentity(r, info, editor.Access{CanEditProgram: true}))
			return
		}

		if token := bearerToken(r); token != "" {
			for _, v := range s.auth.Viewers {
				if equalToken(token, v.Token) {
					info := UserInfo{Login: "viewer", DisplayName: "Viewer", Role: RoleViewer}
					access := editor.Access{AllowedPrograms: v.Programs, AllowedBranches: v.Branches}
					next.ServeHTTP(w, withIdentity(r, info, access))
					return
				}
			}
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid token"})
			return
		}

		if s.whois != nil {
			who, err := s.whois.WhoIs(r.Context(), r.RemoteAddr)
			if err != nil {
				s.log.Warn("tailscale whois failed", "remote", r.RemoteAddr, "error", err)
			} else if who.UserProfile != nil {
				login := who.UserProfile.LoginName
				if !slices.Contains(s.auth.Coaches, login) {
					writeJSON(w, http.StatusForbidden, map[string]string{"error": "not a coach: " + login})
					return
				}
				info := UserInfo{Login: login, DisplayName: who.UserProfile.DisplayName, Role: RoleCoach}
				next.ServeHTTP(w, withIdentity(r, info, editor.Access{CanEditProgram: true}))
				return
			}
		}

		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}

func equalToken(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, Mcp-Session-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers such as the MCP endpoint push events.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
