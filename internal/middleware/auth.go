package middleware

import (
	"net/http"
	"strings"

	"livedetect/internal/service/auth"
)

// AuthMiddleware lets a request through when auth is disabled or it carries a
// valid session cookie. API calls get 401, page loads are sent to /login.
func AuthMiddleware(sessions *auth.Service, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessions.Enabled() || isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(auth.CookieName)
		if err != nil || !sessions.Valid(cookie.Value) {
			if strings.HasPrefix(r.URL.Path, "/api/") ||
				strings.HasPrefix(r.URL.Path, "/logs/") ||
				r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isPublic lists the paths reachable without logging in.
func isPublic(path string) bool {
	return path == "/login" ||
		path == "/auth/login" ||
		strings.HasPrefix(path, "/static/css/") ||
		strings.HasPrefix(path, "/static/js/")
}
