package handler

import (
	"net/http"

	"livedetect/internal/logger"
	"livedetect/internal/service/auth"
)

// LoginHandler handles POST /auth/login by validating password and issuing a session cookie.
func LoginHandler(sessions *auth.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		token, err := sessions.Login(r.FormValue("password"))
		if err != nil {
			logger.Warning("Failed login from %s", r.RemoteAddr)
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}

		if sessions.Enabled() {
			http.SetCookie(w, &http.Cookie{
				Name:     auth.CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(auth.SessionTTL.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// LogoutHandler ends the session, clears the cookie and redirects to the login page.
func LogoutHandler(sessions *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(auth.CookieName); err == nil {
			sessions.Logout(cookie.Value)
		}

		http.SetCookie(w, &http.Cookie{
			Name:   auth.CookieName,
			Value:  "",
			Path:   "/",
			MaxAge: -1, // Deleting cookie
		})

		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
