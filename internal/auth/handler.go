package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aegis-auth/aegis/internal/audit"
	"github.com/aegis-auth/aegis/internal/observability"
	"github.com/aegis-auth/aegis/internal/platform/httpx"
	"github.com/aegis-auth/aegis/internal/users"
	"github.com/aegis-auth/aegis/jobs"
)

// Registrar is the slice of the credential service used by the registration
// endpoints.
type Registrar interface {
	CreateUser(ctx context.Context, email, password string) (*users.User, error)
	AddBiometricKey(ctx context.Context, userID int64, key string) (*users.User, error)
}

// Handler wires HTTP endpoints for registration and login flows.
type Handler struct {
	logger    *slog.Logger
	registrar Registrar
	service   *Service
	jobs      *jobs.Client
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. The jobs client and metrics may
// be nil; event recording and instrumentation are then skipped.
func NewHandler(logger *slog.Logger, registrar Registrar, service *Service, jobsClient *jobs.Client, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		registrar: registrar,
		service:   service,
		jobs:      jobsClient,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/register/biometric", h.handleRegisterBiometric)
	r.Post("/login", h.handleLogin)
	r.Post("/login/biometric", h.handleBiometricLogin)
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type registerBiometricRequest struct {
	Email        string `json:"email" validate:"required,email,max=254"`
	Password     string `json:"password" validate:"required"`
	BiometricKey string `json:"biometric_key" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type biometricLoginRequest struct {
	BiometricKey string `json:"biometric_key" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decodeValid(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	user, err := h.registrar.CreateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.observe(r, audit.KindUserRegistered, audit.OutcomeDenied, req.Email, 0)
		h.logger.Warn("register user", slog.String("email", req.Email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.observe(r, audit.KindUserRegistered, audit.OutcomeOK, user.Email, user.ID)
	httpx.JSON(w, http.StatusCreated, messageResponse{Message: "user created"})
}

// handleRegisterBiometric enrolls a biometric key on an existing account.
// The caller authenticates with email/password first; the credential service
// then performs the store-wide duplicate scan before appending the key.
func (h *Handler) handleRegisterBiometric(w http.ResponseWriter, r *http.Request) {
	var req registerBiometricRequest
	if err := h.decodeValid(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	user, err := h.service.ValidateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.observe(r, audit.KindBiometricEnrolled, audit.OutcomeDenied, req.Email, 0)
		httpx.RespondError(w, err)
		return
	}

	if _, err := h.registrar.AddBiometricKey(r.Context(), user.ID, req.BiometricKey); err != nil {
		h.observe(r, audit.KindBiometricEnrolled, audit.OutcomeDenied, user.Email, user.ID)
		h.logger.Warn("enroll biometric key", slog.String("email", user.Email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.observe(r, audit.KindBiometricEnrolled, audit.OutcomeOK, user.Email, user.ID)
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "biometric key registered"})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeValid(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	user, err := h.service.ValidateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.observe(r, audit.KindPasswordLogin, audit.OutcomeDenied, req.Email, 0)
		httpx.RespondError(w, err)
		return
	}

	resp, err := h.service.Login(r.Context(), user)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.observe(r, audit.KindPasswordLogin, audit.OutcomeOK, user.Email, user.ID)
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleBiometricLogin(w http.ResponseWriter, r *http.Request) {
	var req biometricLoginRequest
	if err := h.decodeValid(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	resp, err := h.service.BiometricLogin(r.Context(), req.BiometricKey)
	if err != nil {
		h.observe(r, audit.KindBiometricLogin, audit.OutcomeDenied, "", 0)
		httpx.RespondError(w, err)
		return
	}

	userID, email := h.identityFromToken(resp.AccessToken)
	h.observe(r, audit.KindBiometricLogin, audit.OutcomeOK, email, userID)
	httpx.JSON(w, http.StatusOK, resp)
}

// identityFromToken recovers the caller identity from a freshly minted
// token. The biometric flow only surfaces the token, so the event identity
// is read back from its claims.
func (h *Handler) identityFromToken(token string) (int64, string) {
	claims, err := h.service.tokens.Parse(token)
	if err != nil {
		return 0, ""
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, ""
	}
	return id, claims.Email
}

// decodeValid decodes the JSON body and applies struct validation rules.
func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, target any) error {
	if err := httpx.DecodeJSON(w, r, target); err != nil {
		return err
	}
	if err := h.validator.Struct(target); err != nil {
		return fmt.Errorf("%w: %s", httpx.ErrValidation, validationDetail(err))
	}
	return nil
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fe.Field()+" failed on "+fe.Tag())
		}
		return strings.Join(parts, ", ")
	}
	return "invalid request"
}

// observe counts the attempt and queues an audit event. Enqueue failures are
// logged and never fail the request.
func (h *Handler) observe(r *http.Request, kind, outcome, email string, userID int64) {
	h.metrics.ObserveAuthAttempt(kind, outcome)
	if h.jobs == nil {
		return
	}
	payload := jobs.AuthEventPayload{
		Kind:    kind,
		Outcome: outcome,
		Email:   email,
		UserID:  userID,
		At:      time.Now().UTC(),
	}
	if _, err := h.jobs.EnqueueAuthEvent(r.Context(), payload); err != nil {
		h.logger.Warn("enqueue auth event", slog.Any("error", err))
	}
}
