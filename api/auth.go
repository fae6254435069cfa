package api

import (
	"context"
	"net/http"
	"strings"

	"shadowagent/core"
)

// jwtAuthMiddleware resolves the current user from the bearer token.
// A missing header, a bad or expired token, an absent subject, and a
// vanished user all produce the same unauthorized response; nothing about
// the failure mode is leaked to the client.
func (a *API) jwtAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			a.unauthorized(w)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := validateToken(tokenString, a.config)
		if err != nil {
			a.logger.Debugw("Rejected bearer token", "error", sanitizeLogMessage(err.Error()))
			a.unauthorized(w)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), core.DBTimeout)
		defer cancel()

		if _, err := a.userStorage.GetUserByUsername(ctx, claims.Subject); err != nil {
			a.unauthorized(w)
			return
		}

		r = r.WithContext(WithUsername(r.Context(), claims.Subject))
		next.ServeHTTP(w, r)
	})
}

// unauthorized writes the single 401 shape used everywhere, including the
// bearer challenge marker.
func (a *API) unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	a.respondJSON(w, map[string]string{"detail": "Could not validate credentials"}, http.StatusUnauthorized)
}
