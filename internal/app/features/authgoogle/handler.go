// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/learnitedu/learnit/internal/app/store/oauthstate"
	userstore "github.com/learnitedu/learnit/internal/app/store/users"
	"github.com/learnitedu/learnit/internal/app/system/auth"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// stateTTL bounds how long a started OAuth flow stays completable.
const stateTTL = 10 * time.Minute

// Handler runs the Google sign-in flow. On success the SPA receives the same
// bearer token a password login would produce, via a redirect to
// {ClientURL}/auth/callback.
type Handler struct {
	Users  *userstore.Store
	States *oauthstate.Store
	ErrLog *respond.ErrorLogger
	Log    *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://learnit.example.com/api/auth/google/callback"
	ClientURL    string // SPA origin for post-auth redirects

	TokenSecret string
	TokenExpiry time.Duration
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	users *userstore.Store,
	states *oauthstate.Store,
	errLog *respond.ErrorLogger,
	clientID, clientSecret, baseURL, clientURL string,
	tokenSecret string,
	tokenExpiry time.Duration,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:        users,
		States:       states,
		ErrLog:       errLog,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/api/auth/google/callback",
		ClientURL:    strings.TrimRight(clientURL, "/"),
		TokenSecret:  tokenSecret,
		TokenExpiry:  tokenExpiry,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth credentials are present.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin handles GET /api/auth/google: stores a CSRF state token and
// redirects to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		respond.Message(w, http.StatusServiceUnavailable,
			"Google OAuth is not configured. Please contact the administrator.")
		return
	}

	state := base64.URLEncoding.EncodeToString(securecookie.GenerateRandomKey(32))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(stateTTL)
	if err := h.States.Save(ctx, state, r.URL.Query().Get("return"), expiresAt); err != nil {
		h.ErrLog.Internal(w, r, "oauth: save state failed", err)
		return
	}

	dest := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
	h.Log.Debug("initiating Google OAuth flow", zap.String("redirect_url", dest))
	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /api/auth/google/callback: validates the state,
// exchanges the code, resolves (or creates) the account, and hands the SPA a
// bearer token in the redirect fragment.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.redirectToLogin(w, r, "oauth_failed")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.redirectToLogin(w, r, "invalid_state")
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	_, valid, err := h.States.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.redirectToLogin(w, r, "oauth_failed")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.redirectToLogin(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.redirectToLogin(w, r, "invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.redirectToLogin(w, r, "oauth_failed")
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.redirectToLogin(w, r, "oauth_failed")
		return
	}

	user, err := h.resolveUser(ctx, googleUser)
	if err != nil {
		h.Log.Error("failed to resolve Google user", zap.Error(err))
		h.redirectToLogin(w, r, "oauth_failed")
		return
	}

	bearer, err := auth.IssueToken(user.ID.Hex(), h.TokenSecret, h.TokenExpiry)
	if err != nil {
		h.Log.Error("failed to issue token after Google login", zap.Error(err))
		h.redirectToLogin(w, r, "oauth_failed")
		return
	}

	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", user.ID.Hex()),
		zap.String("email", user.Email))

	userJSON, err := json.Marshal(map[string]string{
		"id":       user.ID.Hex(),
		"username": user.Username,
		"email":    user.Email,
		"fullName": user.FullName,
		"role":     user.Role,
	})
	if err != nil {
		h.redirectToLogin(w, r, "oauth_failed")
		return
	}

	dest := fmt.Sprintf("%s/auth/callback?token=%s&user=%s",
		h.ClientURL, url.QueryEscape(bearer), url.QueryEscape(string(userJSON)))
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

// resolveUser maps a Google identity onto an account. Match order: existing
// google_id link, then email (the Google ID gets linked), then a brand-new
// student account with no password.
func (h *Handler) resolveUser(ctx context.Context, info *googleUserInfo) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByGoogleID(ctx, info.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, userstore.ErrNotFound) {
		return models.User{}, err
	}

	user, err = h.Users.GetByEmail(ctx, info.Email)
	if err == nil {
		if linkErr := h.Users.LinkGoogleID(ctx, user.ID, info.ID); linkErr != nil {
			h.Log.Warn("failed to link google id",
				zap.Error(linkErr), zap.String("user_id", user.ID.Hex()))
		}
		return user, nil
	}
	if !errors.Is(err, userstore.ErrNotFound) {
		return models.User{}, err
	}

	return h.Users.Create(ctx, models.User{
		Username: strings.SplitN(info.Email, "@", 2)[0],
		Email:    info.Email,
		FullName: info.Name,
		Role:     "student",
		GoogleID: info.ID,
	}, "")
}

// redirectToLogin sends the browser back to the SPA login page with an error
// code it knows how to display.
func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request, errorCode string) {
	http.Redirect(w, r, h.ClientURL+"/login?error="+errorCode, http.StatusSeeOther)
}
