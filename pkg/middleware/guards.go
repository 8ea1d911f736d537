package middleware

import (
	"crypto/subtle"
	"net/http"
)

// Each upstream webhook sender authenticates differently: the CRM sends a
// shared secret header, the signature provider's relay uses HTTP basic
// credentials, and the field-service system can only append query parameters
// to its callback URLs. One guard per style.

// HeaderSecret returns middleware that requires the given header to carry
// the expected shared secret. Responds 401 on mismatch.
func HeaderSecret(header, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if !equalSecret(got, secret) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BasicAuth returns middleware that requires HTTP basic credentials
// matching the configured username and password.
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !equalSecret(user, username) || !equalSecret(pass, password) {
				w.Header().Set("WWW-Authenticate", `Basic realm="webhooks"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// QuerySecret returns middleware that requires the given query parameter to
// carry the expected shared secret. Responds 401 on mismatch.
func QuerySecret(param, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.URL.Query().Get(param)
			if !equalSecret(got, secret) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func equalSecret(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
