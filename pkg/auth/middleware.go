package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/slovar/slovar/pkg/httputil"
)

// Middleware verifies an optional Authorization bearer token and stores the
// resulting identity in the request context. A request without the header
// proceeds as anonymous; a header that fails verification is rejected here,
// with expired and malformed tokens reported distinctly on the wire.
func Middleware(tokens *TokenManager, logger *logrus.Entry) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				httputil.WriteErrorMessage(w, http.StatusUnauthorized, "malformed authorization header")
				return
			}

			identity, err := tokens.Verify(tokenString)
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					logger.WithField("path", r.URL.Path).
						Debug("request with expired token")
					httputil.WriteErrorMessage(w, http.StatusUnauthorized, "authentication token expired")
					return
				}
				logger.WithField("path", r.URL.Path).
					Info("request with invalid token")
				httputil.WriteErrorMessage(w, http.StatusUnauthorized, "invalid authentication token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}
