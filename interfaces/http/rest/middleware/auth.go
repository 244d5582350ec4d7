package middleware

import (
	"net/http"

	"topicgraph/pkg/auth"
	apperrors "topicgraph/pkg/errors"

	"go.uber.org/zap"
)

// InvalidCredentialsMessage is the body of every rejected request
const InvalidCredentialsMessage = "Invalid authentication credentials"

// Authenticate checks the bearer token of every request. When the
// authenticator has no key configured every request passes as anonymous.
func Authenticate(authenticator *auth.Authenticator, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := authenticator.Authenticate(auth.ExtractBearer(r))
			if err != nil {
				logger.Warn("Rejected credentials",
					zap.String("path", r.URL.Path),
					zap.String("ip", clientIP(r)),
					zap.Error(err),
				)
				respondUnauthorized(w)
				return
			}

			logger.Debug("Request authenticated",
				zap.String("subject", principal.Subject),
				zap.String("method", principal.Method),
				zap.String("path", r.URL.Path),
			)
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

func respondUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	apperrors.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": InvalidCredentialsMessage})
}
