package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"certflow/internal/session"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/httputil"
	"certflow/pkg/requestcontext"
)

// Service defines the wallet login operations used by the handler.
type Service interface {
	Challenge(ctx context.Context, id domain.Identity) (session.Challenge, error)
	Login(ctx context.Context, id domain.Identity, signature []byte) (session.Session, error)
	Logout(ctx context.Context) error
}

// Handler exposes wallet login endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public login endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/challenge", h.HandleChallenge)
	r.Post("/auth/login", h.HandleLogin)
}

// RegisterAuthenticated mounts endpoints that require a session.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
}

// ChallengeRequest is the request body for POST /auth/challenge.
type ChallengeRequest struct {
	Identity string `json:"identity"`

	parsed domain.Identity
}

func (r *ChallengeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Identity == "" {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	parsed, err := domain.ParseIdentity(r.Identity)
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, err.Error())
	}
	r.parsed = parsed
	return nil
}

type ChallengeResponse struct {
	Identity  string    `json:"identity"`
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginRequest is the request body for POST /auth/login. Signature is the
// 0x-prefixed 65-byte personal_sign output over the challenge message.
type LoginRequest struct {
	Identity  string `json:"identity"`
	Signature string `json:"signature"`

	parsedIdentity  domain.Identity
	parsedSignature []byte
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Signature) > 200 {
		return dErrors.New(dErrors.CodeValidation, "signature is too long")
	}
	if r.Identity == "" {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	if r.Signature == "" {
		return dErrors.New(dErrors.CodeValidation, "signature is required")
	}
	parsed, err := domain.ParseIdentity(r.Identity)
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, err.Error())
	}
	sig, err := hexutil.Decode(r.Signature)
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "signature must be 0x-prefixed hex")
	}
	r.parsedIdentity = parsed
	r.parsedSignature = sig
	return nil
}

type LoginResponse struct {
	Identity    string    `json:"identity"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HandleChallenge handles POST /auth/challenge.
func (h *Handler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ChallengeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Challenge(ctx, req.parsed)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue challenge",
			"request_id", requestID,
			"identity", req.parsed,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ChallengeResponse{
		Identity:  c.Identity.String(),
		Nonce:     c.Nonce,
		Message:   c.Message,
		ExpiresAt: c.ExpiresAt.UTC(),
	})
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sess, err := h.service.Login(ctx, req.parsedIdentity, req.parsedSignature)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, LoginResponse{
		Identity:    sess.Identity.String(),
		AccessToken: sess.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   sess.ExpiresAt.UTC(),
	})
}

// HandleLogout handles POST /auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := httputil.RequireIdentity(ctx, h.logger); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Logout(ctx); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke session",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var _ Service = (*session.Service)(nil)
