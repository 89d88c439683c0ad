package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"certflow/internal/catalog/models"
	"certflow/internal/catalog/service"
	"certflow/internal/content"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/httputil"
	"certflow/pkg/requestcontext"
)

// Service defines the catalog lookups used by the handler.
type Service interface {
	ListFor(ctx context.Context, holder domain.Identity) ([]models.Certificate, error)
	Get(ctx context.Context, id domain.CertificateID) (models.Certificate, error)
	VerifyIssuer(ctx context.Context, id domain.CertificateID) (models.Verification, error)
}

// URLRenderer turns content references into display URLs.
type URLRenderer interface {
	GatewayURL(ref string) string
}

type Handler struct {
	svc    Service
	urls   URLRenderer
	logger *slog.Logger
}

func New(svc Service, urls URLRenderer, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, urls: urls, logger: logger}
}

// Register mounts certificate routes. All of them require a session.
func (h *Handler) Register(r chi.Router) {
	r.Get("/certificates/me", h.HandleMine)
	r.Get("/holders/{identity}/certificates", h.HandleHolder)
	r.Get("/certificates/{id}", h.HandleGet)
	r.Get("/certificates/{id}/verification", h.HandleVerify)
}

type CertificateResponse struct {
	ID                string                       `json:"id"`
	Name              string                       `json:"name"`
	Institute         string                       `json:"institute"`
	InstitutionName   string                       `json:"institution_name"`
	IssueDate         time.Time                    `json:"issue_date"`
	CertificateType   string                       `json:"certificate_type"`
	Holder            string                       `json:"holder"`
	MetadataRef       string                       `json:"metadata_ref"`
	MetadataAvailable bool                         `json:"metadata_available"`
	MetadataError     string                       `json:"metadata_error,omitempty"`
	DetailsError      string                       `json:"details_error,omitempty"`
	Metadata          *content.CertificateMetadata `json:"metadata,omitempty"`
	ImageURL          string                       `json:"image_url,omitempty"`
}

type CertificateListResponse struct {
	Holder       string                `json:"holder"`
	Certificates []CertificateResponse `json:"certificates"`
}

type VerificationResponse struct {
	CertificateID    string    `json:"certificate_id"`
	Issuer           string    `json:"issuer"`
	IssuerAuthorized bool      `json:"issuer_authorized"`
	CheckedAt        time.Time `json:"checked_at"`
}

func (h *Handler) toResponse(c models.Certificate) CertificateResponse {
	resp := CertificateResponse{
		ID:                c.ID.String(),
		Name:              c.Name,
		Institute:         c.Institute.String(),
		InstitutionName:   c.InstitutionName,
		IssueDate:         c.IssueDate,
		CertificateType:   c.CertificateType,
		Holder:            c.Holder.String(),
		MetadataRef:       c.MetadataRef,
		MetadataAvailable: c.MetadataAvailable(),
		MetadataError:     c.MetadataError,
		DetailsError:      c.DetailsError,
		Metadata:          c.Metadata,
	}
	if c.Metadata != nil && c.Metadata.Image != "" && h.urls != nil {
		resp.ImageURL = h.urls.GatewayURL(c.Metadata.Image)
	}
	return resp
}

// HandleMine handles GET /certificates/me.
func (h *Handler) HandleMine(w http.ResponseWriter, r *http.Request) {
	caller, err := httputil.RequireIdentity(r.Context(), h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeList(w, r, caller)
}

// HandleHolder handles GET /holders/{identity}/certificates.
func (h *Handler) HandleHolder(w http.ResponseWriter, r *http.Request) {
	holder, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
		return
	}
	h.writeList(w, r, holder)
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, holder domain.Identity) {
	ctx := r.Context()
	certs, err := h.svc.ListFor(ctx, holder)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list certificates",
			"request_id", requestcontext.RequestID(ctx),
			"holder", holder,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	resp := CertificateListResponse{
		Holder:       holder.String(),
		Certificates: make([]CertificateResponse, 0, len(certs)),
	}
	for _, c := range certs {
		resp.Certificates = append(resp.Certificates, h.toResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /certificates/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	cert, err := h.svc.Get(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to load certificate",
			"request_id", requestcontext.RequestID(ctx),
			"certificate", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.toResponse(cert))
}

// HandleVerify handles GET /certificates/{id}/verification.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := h.svc.VerifyIssuer(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to verify issuer",
			"request_id", requestcontext.RequestID(ctx),
			"certificate", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerificationResponse{
		CertificateID:    v.CertificateID.String(),
		Issuer:           v.Issuer.String(),
		IssuerAuthorized: v.IssuerAuthorized,
		CheckedAt:        v.CheckedAt,
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (domain.CertificateID, bool) {
	id, err := domain.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
		return 0, false
	}
	return id, true
}

var _ Service = (*service.Catalog)(nil)
