package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certflow/internal/authz/models"
	"certflow/internal/authz/service"
	"certflow/internal/identity"
	"certflow/internal/ledger"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/httputil"
	"certflow/pkg/requestcontext"
)

// Service defines the authorization operations used by the handler.
type Service interface {
	IsAuthorized(ctx context.Context, institute domain.Identity) (bool, error)
	Authorize(ctx context.Context, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error)
	Revoke(ctx context.Context, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error)
	ListInstitutes(ctx context.Context) ([]models.Institute, error)
	ListUsers(ctx context.Context, caller domain.Identity) ([]models.User, error)
}

type Handler struct {
	gate    Service
	signers identity.SignerSource
	logger  *slog.Logger
}

func New(gate Service, signers identity.SignerSource, logger *slog.Logger) *Handler {
	return &Handler{gate: gate, signers: signers, logger: logger}
}

// Register mounts the institute directory routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/institutes", h.HandleListInstitutes)
	r.Get("/institutes/{identity}/authorization", h.HandleAuthorization)
}

// RegisterAdmin mounts administrator routes. The live owner check happens in
// the service, not in middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/institutes/{identity}/authorize", h.HandleAuthorize)
	r.Post("/admin/institutes/{identity}/revoke", h.HandleRevoke)
	r.Get("/admin/users", h.HandleListUsers)
}

type InstituteResponse struct {
	Identity            string `json:"identity"`
	Authorized          bool   `json:"authorized"`
	AuthorizationError  string `json:"authorization_error,omitempty"`
	MetadataRef         string `json:"metadata_ref"`
	InstitutionName     string `json:"institution_name,omitempty"`
	AccreditationNumber string `json:"accreditation_number,omitempty"`
	DocumentRef         string `json:"document_ref,omitempty"`
	ProfileError        string `json:"profile_error,omitempty"`
}

type AuthorizationResponse struct {
	Identity   string `json:"identity"`
	Authorized bool   `json:"authorized"`
	TxHash     string `json:"tx_hash,omitempty"`
}

type UserResponse struct {
	Identity    string `json:"identity"`
	Role        string `json:"role"`
	MetadataRef string `json:"metadata_ref"`
	LoadError   string `json:"load_error,omitempty"`
}

// HandleListInstitutes handles GET /institutes.
func (h *Handler) HandleListInstitutes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	institutes, err := h.gate.ListInstitutes(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list institutes",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	resp := make([]InstituteResponse, 0, len(institutes))
	for _, inst := range institutes {
		resp = append(resp, toInstituteResponse(inst))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"institutes": resp})
}

func toInstituteResponse(inst models.Institute) InstituteResponse {
	out := InstituteResponse{
		Identity:           inst.Identity.String(),
		Authorized:         inst.Authorized,
		AuthorizationError: inst.AuthorizationError,
		MetadataRef:        inst.MetadataRef,
		ProfileError:       inst.ProfileError,
	}
	if p := inst.Profile; p != nil {
		out.InstitutionName = p.InstitutionName
		out.AccreditationNumber = p.AccreditationNumber
		out.DocumentRef = p.DocumentCID
	}
	return out
}

// HandleAuthorization handles GET /institutes/{identity}/authorization.
func (h *Handler) HandleAuthorization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	institute, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	authorized, err := h.gate.IsAuthorized(ctx, institute)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AuthorizationResponse{Identity: institute.String(), Authorized: authorized})
}

// HandleAuthorize handles POST /admin/institutes/{identity}/authorize.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	h.handleMutation(w, r, h.gate.Authorize, true)
}

// HandleRevoke handles POST /admin/institutes/{identity}/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	h.handleMutation(w, r, h.gate.Revoke, false)
}

func (h *Handler) handleMutation(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, identity.Signer, domain.Identity) (ledger.Receipt, error), authorized bool) {
	ctx := r.Context()
	institute, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	signer, err := identity.CallerSigner(ctx, h.signers)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	receipt, err := fn(ctx, signer, institute)
	if err != nil {
		h.logger.WarnContext(ctx, "institute authorization change failed",
			"request_id", requestcontext.RequestID(ctx),
			"institute", institute,
			"tx_hash", receipt.TxHash,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AuthorizationResponse{
		Identity:   institute.String(),
		Authorized: authorized,
		TxHash:     receipt.TxHash,
	})
}

// HandleListUsers handles GET /admin/users.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireIdentity(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	users, err := h.gate.ListUsers(ctx, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, UserResponse{
			Identity:    u.Identity.String(),
			Role:        u.Role.String(),
			MetadataRef: u.MetadataRef,
			LoadError:   u.LoadError,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"users": resp})
}

func (h *Handler) pathIdentity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	id, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
		return "", false
	}
	return id, true
}

var _ Service = (*service.Gate)(nil)
