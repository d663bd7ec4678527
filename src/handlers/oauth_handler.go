package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/username/finanzas/backend/src/config"
	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/model"
)

var (
	googleOauthConfig *oauth2.Config
	oauthStateString  string
)

// InitializeGoogleOAuthConfig wires the Google endpoints from configuration.
// Must run after config.LoadConfig.
func InitializeGoogleOAuthConfig() {
	googleOauthConfig = &oauth2.Config{
		RedirectURL:  config.Cfg.GoogleRedirectURL,
		ClientID:     config.Cfg.GoogleClientID,
		ClientSecret: config.Cfg.GoogleClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
	oauthStateString = generateOAuthState()
}

func generateOAuthState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		logger.L.Error("failed to generate OAuth state", "error", err)
		return "state-token"
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func (h *UserHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	url := googleOauthConfig.AuthCodeURL(oauthStateString)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *UserHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	signinError := func(code string) {
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/signin?error="+code, http.StatusTemporaryRedirect)
	}

	if r.FormValue("state") != oauthStateString {
		logger.L.Warn("invalid OAuth state from Google callback")
		signinError("invalid_state")
		return
	}

	token, err := googleOauthConfig.Exchange(context.Background(), r.FormValue("code"))
	if err != nil {
		logger.L.Error("failed to exchange code for token", "error", err)
		signinError("token_exchange_failed")
		return
	}

	response, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
	if err != nil {
		logger.L.Error("failed to get user info from Google", "error", err)
		signinError("userinfo_failed")
		return
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		logger.L.Error("failed to read user info response body", "error", err)
		signinError("userinfo_read_failed")
		return
	}

	var googleUser struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Verified bool   `json:"verified_email"`
		ID       string `json:"id"`
	}
	if err := json.Unmarshal(contents, &googleUser); err != nil {
		logger.L.Error("failed to unmarshal Google user info", "error", err)
		signinError("userinfo_parse_failed")
		return
	}
	if !googleUser.Verified {
		signinError("email_not_verified_by_google")
		return
	}

	user, err := model.GetUserByEmail(database.DB, googleUser.Email)
	if err != nil {
		// First Google sign-in creates the account. The email doubles as
		// username since Google guarantees its uniqueness.
		newUser := &model.User{
			Username:        googleUser.Email,
			Email:           googleUser.Email,
			AuthProvider:    "google",
			IsEmailVerified: true,
		}
		if err := newUser.CreateUser(database.DB); err != nil {
			logger.L.Error("failed to create Google user", "error", err)
			signinError("user_creation_failed")
			return
		}
		user = newUser
	} else if user.AuthProvider == "local" {
		logger.L.Warn("Google login attempt for existing local account", "email", user.Email)
		signinError("email_already_exists_local")
		return
	}

	appToken, err := h.authService.GenerateToken(fmt.Sprintf("%d", user.ID))
	if err != nil {
		logger.L.Error("failed to generate app token for Google user", "error", err)
		signinError("token_generation_failed")
		return
	}

	redirectURL := fmt.Sprintf("%s/auth/google/callback?token=%s&user=%s",
		config.Cfg.FrontendBaseURL,
		appToken,
		url.QueryEscape(string(contents)))
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}
