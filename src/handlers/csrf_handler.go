package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/utils"
)

const csrfCookieName = "_csrf_token"

// CSRFHandler issues and validates double-submit CSRF tokens. Tokens are
// random values signed with the configured auth key, delivered both as an
// HttpOnly cookie and in the response body; mutating requests must echo the
// token in the X-CSRF-Token header.
type CSRFHandler struct {
	authKey []byte
}

func NewCSRFHandler(authKey []byte) *CSRFHandler {
	return &CSRFHandler{authKey: authKey}
}

func (h *CSRFHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.generateToken()
	if err != nil {
		logger.L.Error("failed to generate CSRF token", "error", err)
		utils.SendJSONError(w, "failed to generate CSRF token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   false, // behind TLS-terminating proxy in production
		MaxAge:   3600,
	})

	w.Header().Set("X-CSRF-Token", token)
	utils.SendJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// Middleware enforces the double-submit check on everything except OPTIONS
// preflights and GET/HEAD reads.
func (h *CSRFHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		headerToken := r.Header.Get("X-CSRF-Token")
		cookie, err := r.Cookie(csrfCookieName)
		if headerToken == "" || err != nil || headerToken != cookie.Value || !h.verifyToken(headerToken) {
			logger.L.Warn("CSRF validation failed",
				"method", r.Method,
				"path", r.URL.Path,
				"origin", r.Header.Get("Origin"))
			utils.SendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *CSRFHandler) generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	value := base64.RawURLEncoding.EncodeToString(b)
	return value + "." + h.sign(value), nil
}

func (h *CSRFHandler) verifyToken(token string) bool {
	value, sig, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(h.sign(value)))
}

func (h *CSRFHandler) sign(value string) string {
	mac := hmac.New(sha256.New, h.authKey)
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
