package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"certflow/internal/content"
	"certflow/internal/identity"
	"certflow/internal/role/models"
	"certflow/internal/role/service"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/httputil"
	"certflow/pkg/platform/validation"
	"certflow/pkg/requestcontext"
)

// Resolver defines the role lookups used by the handler.
type Resolver interface {
	Resolve(ctx context.Context, id domain.Identity) (models.Resolution, error)
	Refresh(ctx context.Context, id domain.Identity) (models.Resolution, error)
}

// Registrar defines the registration operations used by the handler.
type Registrar interface {
	RegisterStudent(ctx context.Context, signer identity.Signer, profile content.StudentProfile) (models.Registration, error)
	RegisterProvider(ctx context.Context, signer identity.Signer, profile content.ProviderProfile, document []byte) (models.Registration, error)
	Profile(ctx context.Context, id domain.Identity) (models.Profile, error)
}

// URLRenderer turns content references into display URLs.
type URLRenderer interface {
	GatewayURL(ref string) string
}

// maxDocumentBytes bounds the decoded accreditation document.
const maxDocumentBytes = 1 << 20

type Handler struct {
	resolver  Resolver
	registrar Registrar
	signers   identity.SignerSource
	urls      URLRenderer
	logger    *slog.Logger
}

func New(resolver Resolver, registrar Registrar, signers identity.SignerSource, urls URLRenderer, logger *slog.Logger) *Handler {
	return &Handler{
		resolver:  resolver,
		registrar: registrar,
		signers:   signers,
		urls:      urls,
		logger:    logger,
	}
}

// Register mounts role and registration routes. All of them require a session.
func (h *Handler) Register(r chi.Router) {
	r.Get("/roles/me", h.HandleResolveMe)
	r.Post("/roles/me/refresh", h.HandleRefreshMe)
	r.Get("/roles/{identity}", h.HandleResolve)
	r.Post("/registrations/student", h.HandleRegisterStudent)
	r.Post("/registrations/provider", h.HandleRegisterProvider)
	r.Get("/profiles/{identity}", h.HandleProfile)
}

type ResolutionResponse struct {
	Identity        string    `json:"identity"`
	Kind            string    `json:"kind"`
	Registered      bool      `json:"registered"`
	Role            string    `json:"role,omitempty"`
	IsAdministrator bool      `json:"is_administrator"`
	ProviderStatus  string    `json:"provider_status,omitempty"`
	MetadataRef     string    `json:"metadata_ref,omitempty"`
	ResolvedAt      time.Time `json:"resolved_at"`
}

func toResolutionResponse(r models.Resolution) ResolutionResponse {
	return ResolutionResponse{
		Identity:        r.Identity.String(),
		Kind:            r.Kind.String(),
		Registered:      r.Registered,
		Role:            r.Role.String(),
		IsAdministrator: r.IsAdministrator,
		ProviderStatus:  r.ProviderStatus(),
		MetadataRef:     r.MetadataRef,
		ResolvedAt:      r.ResolvedAt,
	}
}

// StudentRegistrationRequest is the body of POST /registrations/student.
type StudentRegistrationRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	StudentID string `json:"student_id"`
}

func (r *StudentRegistrationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.CheckStringLength("name", r.Name, validation.MaxProfileFieldLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("email", r.Email, validation.MaxEmailLength); err != nil {
		return err
	}
	return validation.CheckStringLength("student_id", r.StudentID, validation.MaxProfileFieldLength)
}

func (r *StudentRegistrationRequest) profile() content.StudentProfile {
	return content.StudentProfile{Name: r.Name, Email: r.Email, StudentID: r.StudentID}
}

// ProviderRegistrationRequest is the body of POST /registrations/provider.
type ProviderRegistrationRequest struct {
	InstitutionName     string `json:"institution_name"`
	AccreditationNumber string `json:"accreditation_number"`
	DocumentBase64      string `json:"document_base64"`

	document []byte
}

func (r *ProviderRegistrationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.CheckStringLength("institution_name", r.InstitutionName, validation.MaxProfileFieldLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("accreditation_number", r.AccreditationNumber, validation.MaxProfileFieldLength); err != nil {
		return err
	}
	if err := validation.CheckRequired("document_base64", r.DocumentBase64); err != nil {
		return err
	}
	doc, err := base64.StdEncoding.DecodeString(r.DocumentBase64)
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "document_base64 is not valid base64")
	}
	if err := validation.CheckBlobSize("document", doc, maxDocumentBytes); err != nil {
		return err
	}
	r.document = doc
	return nil
}

type RegistrationResponse struct {
	Identity    string `json:"identity"`
	Role        string `json:"role"`
	MetadataRef string `json:"metadata_ref"`
	DocumentRef string `json:"document_ref,omitempty"`
	TxHash      string `json:"tx_hash"`
}

type ProfileResponse struct {
	Identity    string `json:"identity"`
	Role        string `json:"role"`
	MetadataRef string `json:"metadata_ref"`
	Profile     any    `json:"profile"`
	DocumentURL string `json:"document_url,omitempty"`
}

// HandleResolveMe handles GET /roles/me.
func (h *Handler) HandleResolveMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireIdentity(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeResolution(w, r, h.resolver.Resolve, caller)
}

// HandleRefreshMe handles POST /roles/me/refresh.
func (h *Handler) HandleRefreshMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := httputil.RequireIdentity(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeResolution(w, r, h.resolver.Refresh, caller)
}

// HandleResolve handles GET /roles/{identity}.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	subject, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
		return
	}
	h.writeResolution(w, r, h.resolver.Resolve, subject)
}

func (h *Handler) writeResolution(w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.Identity) (models.Resolution, error), id domain.Identity) {
	ctx := r.Context()
	res, err := fn(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve role",
			"request_id", requestcontext.RequestID(ctx),
			"identity", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResolutionResponse(res))
}

// HandleRegisterStudent handles POST /registrations/student.
func (h *Handler) HandleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := h.callerSigner(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[StudentRegistrationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	reg, err := h.registrar.RegisterStudent(ctx, signer, req.profile())
	h.writeRegistration(w, ctx, reg, err)
}

// HandleRegisterProvider handles POST /registrations/provider.
func (h *Handler) HandleRegisterProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := h.callerSigner(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepareLimit[ProviderRegistrationRequest](w, r, h.logger, ctx, requestID, 2*maxDocumentBytes)
	if !ok {
		return
	}
	reg, err := h.registrar.RegisterProvider(ctx, signer, content.ProviderProfile{
		InstitutionName:     req.InstitutionName,
		AccreditationNumber: req.AccreditationNumber,
	}, req.document)
	h.writeRegistration(w, ctx, reg, err)
}

func (h *Handler) writeRegistration(w http.ResponseWriter, ctx context.Context, reg models.Registration, err error) {
	if err != nil {
		h.logger.ErrorContext(ctx, "registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"identity", reg.Identity,
			"tx_hash", reg.TxHash,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, RegistrationResponse{
		Identity:    reg.Identity.String(),
		Role:        reg.Role.String(),
		MetadataRef: reg.MetadataRef,
		DocumentRef: reg.DocumentRef,
		TxHash:      reg.TxHash,
	})
}

// HandleProfile handles GET /profiles/{identity}.
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
		return
	}
	p, err := h.registrar.Profile(ctx, subject)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to load profile",
			"request_id", requestcontext.RequestID(ctx),
			"identity", subject,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	resp := ProfileResponse{
		Identity:    p.Identity.String(),
		Role:        p.Role.String(),
		MetadataRef: p.MetadataRef,
	}
	switch {
	case p.Student != nil:
		resp.Profile = p.Student
	case p.Provider != nil:
		resp.Profile = p.Provider
		if h.urls != nil && p.Provider.DocumentCID != "" {
			resp.DocumentURL = h.urls.GatewayURL(p.Provider.DocumentCID)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) callerSigner(w http.ResponseWriter, ctx context.Context) (identity.Signer, bool) {
	signer, err := identity.CallerSigner(ctx, h.signers)
	if err != nil {
		h.logger.WarnContext(ctx, "no signer for caller",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return nil, false
	}
	return signer, true
}

var (
	_ Resolver  = (*service.Resolver)(nil)
	_ Registrar = (*service.Registrar)(nil)
)
