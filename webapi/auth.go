package webapi

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bearerAuth rejects requests whose Authorization bearer token does not
// match the configured bcrypt hash.
func bearerAuth(tokenHash string) func(http.Handler) http.Handler {
	hash := []byte(tokenHash)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "missing bearer token"})
				return
			}
			if err := bcrypt.CompareHashAndPassword(hash, []byte(token)); err != nil {
				writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "invalid token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
