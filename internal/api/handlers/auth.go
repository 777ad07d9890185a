package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dom/account-market/internal/api/middleware"
	"github.com/dom/account-market/internal/api/response"
	"github.com/dom/account-market/internal/config"
	"github.com/dom/account-market/internal/domain"
	"github.com/dom/account-market/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	cfg         *config.Config
	log         *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg, log: log}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message  string       `json:"message"`
	Redirect string       `json:"redirect"`
	User     UserResponse `json:"user"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type MeResponse struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(w, r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Missing credentials fail the same way as wrong ones.
	if req.Username == "" || req.Password == "" {
		response.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, domain.ErrStoreUnavailable):
			h.log.Error("login: store unavailable", zap.Error(err))
			response.Error(w, http.StatusServiceUnavailable, "Service unavailable")
		default:
			h.log.Error("login failed", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.Session.ExpiresAt,
		MaxAge:   int(h.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   !h.cfg.IsLocal(),
		SameSite: http.SameSiteLaxMode,
	})

	response.JSON(w, http.StatusOK, LoginResponse{
		Message:  "Login successful",
		Redirect: result.RedirectTo,
		User: UserResponse{
			ID:       result.Session.UserID.String(),
			Username: result.Session.Username,
		},
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(h.cfg.SessionCookieName); err == nil {
		token = cookie.Value
	}

	if err := h.authService.Logout(r.Context(), token); err != nil {
		h.log.Error("logout failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Logout failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.cfg.IsLocal(),
		SameSite: http.SameSiteLaxMode,
	})

	response.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		response.Unauthorized(w, h.cfg.LoginPage)
		return
	}

	response.JSON(w, http.StatusOK, MeResponse{
		UserID:    session.UserID.String(),
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt,
	})
}

// decodeLogin accepts the JSON body used by the API and the form post used
// by the login page.
func decodeLogin(w http.ResponseWriter, r *http.Request) (LoginRequest, error) {
	var req LoginRequest
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
		return req, nil
	}

	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}
