package account

import (
	"context"
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-todo-go/pkg/utilities"
)

// Tokens is what the session handlers need from the token service.
type Tokens interface {
	Issue(sub token.Subject) (*token.Issued, error)
	Revoke(ctx context.Context, p token.Principal) (bool, error)
}

// Handler exposes the /Account endpoints.
type Handler struct {
	creds  CredentialStore
	tokens Tokens
	logger *zap.SugaredLogger
}

func NewHandler(creds CredentialStore, tokens Tokens, logger *zap.SugaredLogger) *Handler {
	return &Handler{creds: creds, tokens: tokens, logger: logger}
}

// RegisterRequest request body for the register endpoint.
type RegisterRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Email, append([]validation.Rule{validation.Required}, emailRules...)...),
		validation.Field(&r.Password, validation.Required, passwordRule),
		validation.Field(&r.ConfirmPassword, validation.Required, equalsRule(r.Password)),
	)
}

// EditRequest shares the register shape; every field is optional.
type EditRequest RegisterRequest

func (r EditRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Email, emailRules...),
		validation.Field(&r.Password, passwordRule),
		validation.Field(&r.ConfirmPassword, equalsRule(r.Password)),
	)
}

// LoginRequest login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token       string          `json:"token"`
	Message     string          `json:"message"`
	CurrentDate time.Time       `json:"currentDate"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	User        *entity.Profile `json:"user,omitempty"`
}

const (
	msgRegisterFailed = "Registration failed"
	msgLoginFailed    = "Login failed"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, msgRegisterFailed, nil)
		return
	}
	if err := fromValidation(req.Validate()); err != nil {
		h.writeValidation(w, msgRegisterFailed, err)
		return
	}
	u, err := h.creds.CreateIdentity(r.Context(), NewIdentity{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		h.writeValidation(w, msgRegisterFailed, err)
		return
	}
	issued, err := h.tokens.Issue(u)
	if err != nil {
		h.logger.Errorw("issue token after register", "user_id", u.ID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	h.logger.Infow("identity registered", "user_id", u.ID, "jti", issued.ID)
	profile := u.Profile()
	utilities.WriteJSON(w, http.StatusCreated, TokenResponse{
		Token:       issued.Token,
		Message:     "Successful registration",
		CurrentDate: time.Now().UTC(),
		ExpiresAt:   issued.ExpiresAt,
		User:        &profile,
	})
}

// Login never tells the caller whether the email exists.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, msgLoginFailed, nil)
		return
	}
	u, err := h.creds.VerifyPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			h.logger.Debugw("login failed")
			utilities.WriteError(w, http.StatusBadRequest, msgLoginFailed, nil)
			return
		}
		h.logger.Errorw("login", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	issued, err := h.tokens.Issue(u)
	if err != nil {
		h.logger.Errorw("issue token after login", "user_id", u.ID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	h.logger.Infow("login", "user_id", u.ID, "jti", issued.ID)
	utilities.WriteJSON(w, http.StatusOK, TokenResponse{
		Token:       issued.Token,
		Message:     "Successful login",
		CurrentDate: time.Now().UTC(),
		ExpiresAt:   issued.ExpiresAt,
	})
}

// Logout denylists the presented token when revocation is enabled.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := token.FromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	revoked, err := h.tokens.Revoke(r.Context(), p)
	if err != nil {
		h.logger.Errorw("logout", "user_id", p.Subject, "jti", p.TokenID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	h.logger.Infow("logout", "user_id", p.Subject, "jti", p.TokenID, "revoked", revoked)
	utilities.WriteMessage(w, http.StatusOK, "You have successfully logged out.")
}

func (h *Handler) Display(w http.ResponseWriter, r *http.Request) {
	p, ok := token.FromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	u, err := h.creds.GetIdentity(r.Context(), p.Subject)
	if err != nil {
		h.writeLookupError(w, p, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u.Profile())
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	p, ok := token.FromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	var req EditRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid edit payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "Update failed", nil)
		return
	}
	if err := fromValidation(req.Validate()); err != nil {
		h.writeValidation(w, "Update failed", err)
		return
	}
	u, err := h.creds.UpdateIdentity(r.Context(), p.Subject, IdentityUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			h.writeValidation(w, "Update failed", err)
			return
		}
		h.writeLookupError(w, p, err)
		return
	}
	h.logger.Infow("identity updated", "user_id", u.ID, "password_changed", req.Password != "")
	utilities.WriteJSON(w, http.StatusOK, u.Profile())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := token.FromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	if err := h.creds.DeleteIdentity(r.Context(), p.Subject); err != nil {
		h.writeLookupError(w, p, err)
		return
	}
	h.logger.Infow("identity deleted", "user_id", p.Subject)
	utilities.WriteMessage(w, http.StatusOK, "Account deleted")
}

func (h *Handler) writeValidation(w http.ResponseWriter, msg string, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		utilities.WriteError(w, http.StatusBadRequest, msg, verr.Fields)
		return
	}
	h.logger.Errorw(msg, "err", err)
	utilities.WriteError(w, http.StatusInternalServerError, "Internal server error", nil)
}

func (h *Handler) writeLookupError(w http.ResponseWriter, p token.Principal, err error) {
	if errors.Is(err, ErrNotFound) {
		utilities.WriteError(w, http.StatusNotFound, "Not found", nil)
		return
	}
	h.logger.Errorw("account operation", "user_id", p.Subject, "err", err)
	utilities.WriteError(w, http.StatusInternalServerError, "Internal server error", nil)
}
