package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/upb/whatsapp-saas/utils"
	"go.uber.org/zap"
)

const (
	// SessionCookieName is the cookie the browser frontend sends the access token in
	SessionCookieName = "auth_token"
)

// Authenticator signs users in and up against the hosted auth provider
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, req SignUpRequest) (*ProviderUser, error)
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// LoginResponse is returned on a successful login
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in,omitempty"`
	User        ProviderUser `json:"user"`
}

// Handler handles password login, registration and logout.
type Handler struct {
	provider      Authenticator
	secureCookies bool
	logger        *zap.Logger
}

// NewHandler creates a new auth handler. provider may be nil, in which case
// login and registration answer 503.
func NewHandler(provider Authenticator, secureCookies bool, logger *zap.Logger) *Handler {
	return &Handler{
		provider:      provider,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// HandleLogin exchanges email and password for an access token and sets the session cookie
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	if h.provider == nil {
		h.writeProviderError(w, "login", ErrProviderNotConfigured)
		return
	}

	session, err := h.provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeProviderError(w, "login", err)
		return
	}

	maxAge := session.ExpiresIn
	if maxAge <= 0 {
		maxAge = 3600
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.AccessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("user logged in", zap.String("user_id", session.User.ID))

	tokenType := session.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	_ = utils.WriteOK(w, LoginResponse{
		AccessToken: session.AccessToken,
		TokenType:   tokenType,
		ExpiresIn:   session.ExpiresIn,
		User:        session.User,
	})
}

// HandleRegister creates an account at the provider. The profile row is
// created by the store's signup trigger, not here.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	if h.provider == nil {
		h.writeProviderError(w, "register", ErrProviderNotConfigured)
		return
	}

	user, err := h.provider.SignUp(r.Context(), SignUpRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		h.writeProviderError(w, "register", err)
		return
	}

	h.logger.Info("user registered", zap.String("user_id", user.ID))
	_ = utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse{
		Data:    user,
		Message: "User registered successfully",
	})
}

// HandleLogout clears the session cookie
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	utils.WriteNoContent(w)
}

func (h *Handler) writeProviderError(w http.ResponseWriter, op string, err error) {
	var perr *ProviderError
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		h.logger.Info("provider rejected credentials", zap.String("op", op))
		_ = utils.WriteUnauthorized(w, "Invalid email or password")
	case errors.As(err, &perr):
		h.logger.Info("provider rejected request", zap.String("op", op), zap.Int("status", perr.Status))
		_ = utils.WriteBadRequest(w, perr.Msg, nil)
	case errors.Is(err, ErrProviderNotConfigured):
		h.logger.Error("auth provider not configured", zap.String("op", op))
		_ = utils.WriteError(w, http.StatusServiceUnavailable, "Authentication not configured", nil)
	default:
		h.logger.Error("auth provider call failed", zap.String("op", op), zap.Error(err))
		_ = utils.WriteError(w, http.StatusBadGateway, "Authentication provider unavailable", nil)
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	details := make(map[string]interface{})
	for k, v := range utils.GetValidationFields(err) {
		details[k] = v
	}
	_ = utils.WriteBadRequest(w, "Validation failed", details)
}
