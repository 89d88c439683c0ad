package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"certflow/internal/identity"
	"certflow/internal/issuance/models"
	"certflow/internal/issuance/service"
	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/httputil"
	"certflow/pkg/platform/validation"
	"certflow/pkg/requestcontext"
)

// Service defines the request lifecycle operations used by the handler.
type Service interface {
	Submit(ctx context.Context, signer identity.Signer, sub models.Submission) (models.Request, error)
	Get(ctx context.Context, id domain.RequestID) (models.Request, error)
	ListPendingFor(ctx context.Context, institute domain.Identity) ([]models.Request, error)
	ListPendingBy(ctx context.Context, student domain.Identity) ([]models.Request, error)
	Approve(ctx context.Context, signer identity.Signer, id domain.RequestID, in models.Approval) (models.Issued, error)
	ResumeApproval(ctx context.Context, signer identity.Signer, id domain.RequestID) (models.Issued, error)
	Withdraw(ctx context.Context, signer identity.Signer, id domain.RequestID) (models.Cancellation, error)
	Reject(ctx context.Context, signer identity.Signer, id domain.RequestID, reason string) (models.Cancellation, error)
	Cancel(ctx context.Context, signer identity.Signer, id domain.RequestID) (models.Cancellation, error)
}

type Handler struct {
	svc           Service
	signers       identity.SignerSource
	maxImageBytes int64
	logger        *slog.Logger
}

func New(svc Service, signers identity.SignerSource, maxImageBytes int64, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, signers: signers, maxImageBytes: maxImageBytes, logger: logger}
}

// Register mounts request lifecycle routes. All of them require a session.
func (h *Handler) Register(r chi.Router) {
	r.Post("/requests", h.HandleSubmit)
	r.Get("/requests/pending", h.HandlePendingForMe)
	r.Get("/requests/mine", h.HandleMine)
	r.Get("/requests/{id}", h.HandleGet)
	r.Post("/requests/{id}/approve", h.HandleApprove)
	r.Post("/requests/{id}/resume", h.HandleResume)
	r.Post("/requests/{id}/withdraw", h.HandleWithdraw)
	r.Post("/requests/{id}/reject", h.HandleReject)
	r.Post("/requests/{id}/cancel", h.HandleCancel)
}

// SubmitRequest is the body of POST /requests.
type SubmitRequest struct {
	Institute string `json:"institute"`
	Name      string `json:"name"`
	Message   string `json:"message"`

	institute domain.Identity
}

func (r *SubmitRequest) Normalize() {
	r.Institute = strings.TrimSpace(r.Institute)
}

func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	id, err := domain.ParseIdentity(r.Institute)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "institute: "+err.Error())
	}
	r.institute = id
	return nil
}

// ApproveRequest is the body of POST /requests/{id}/approve.
type ApproveRequest struct {
	CertificateType string `json:"certificate_type"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	ImageBase64     string `json:"image_base64"`

	image []byte
}

func (r *ApproveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.ImageBase64 == "" {
		return dErrors.New(dErrors.CodeValidation, "image_base64 is required")
	}
	image, err := base64.StdEncoding.DecodeString(r.ImageBase64)
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "image_base64 is not valid base64")
	}
	r.image = image
	return nil
}

// RejectRequest is the body of POST /requests/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.CheckStringLength("reason", strings.TrimSpace(r.Reason), validation.MaxReasonLength)
}

type RequestResponse struct {
	ID                 uint64 `json:"id"`
	Student            string `json:"student"`
	Institute          string `json:"institute"`
	Name               string `json:"name"`
	Message            string `json:"message,omitempty"`
	StudentMetadataRef string `json:"student_metadata_ref"`
	Status             string `json:"status"`
}

func toRequestResponse(r models.Request) RequestResponse {
	return RequestResponse{
		ID:                 uint64(r.ID),
		Student:            r.Student.String(),
		Institute:          r.Institute.String(),
		Name:               r.Name,
		Message:            r.Message,
		StudentMetadataRef: r.StudentMetadataRef,
		Status:             string(r.Status),
	}
}

type IssuedResponse struct {
	RequestID     uint64 `json:"request_id"`
	CertificateID uint64 `json:"certificate_id,omitempty"`
	Student       string `json:"student"`
	ImageRef      string `json:"image_ref,omitempty"`
	MetadataRef   string `json:"metadata_ref,omitempty"`
	TxHash        string `json:"tx_hash,omitempty"`
}

type CancellationResponse struct {
	RequestID uint64 `json:"request_id"`
	Kind      string `json:"kind"`
	Reason    string `json:"reason,omitempty"`
	TxHash    string `json:"tx_hash"`
}

// HandleSubmit handles POST /requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	signer, ok := h.callerSigner(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	created, err := h.svc.Submit(ctx, signer, models.Submission{
		Institute: req.institute,
		Name:      req.Name,
		Message:   req.Message,
	})
	if err != nil {
		h.fail(w, ctx, "certificate request submission failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRequestResponse(created))
}

// HandlePendingForMe handles GET /requests/pending for the calling institute.
func (h *Handler) HandlePendingForMe(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r, h.svc.ListPendingFor)
}

// HandleMine handles GET /requests/mine for the calling student.
func (h *Handler) HandleMine(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r, h.svc.ListPendingBy)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.Identity) ([]models.Request, error)) {
	ctx := r.Context()
	caller, err := httputil.RequireIdentity(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reqs, err := fn(ctx, caller)
	if err != nil {
		h.fail(w, ctx, "failed to list certificate requests", err)
		return
	}
	resp := make([]RequestResponse, 0, len(reqs))
	for _, req := range reqs {
		resp = append(resp, toRequestResponse(req))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": resp})
}

// HandleGet handles GET /requests/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathRequestID(w, r)
	if !ok {
		return
	}
	req, err := h.svc.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequestResponse(req))
}

// HandleApprove handles POST /requests/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, ok := pathRequestID(w, r)
	if !ok {
		return
	}
	signer, ok := h.callerSigner(w, ctx)
	if !ok {
		return
	}
	limit := 2*h.maxImageBytes + validation.MaxBodySize
	req, ok := httputil.DecodeAndPrepareLimit[ApproveRequest](w, r, h.logger, ctx, requestID, limit)
	if !ok {
		return
	}
	issued, err := h.svc.Approve(ctx, signer, id, models.Approval{
		CertificateType: req.CertificateType,
		Name:            req.Name,
		Description:     req.Description,
		Image:           req.image,
	})
	h.writeIssued(w, ctx, issued, err)
}

// HandleResume handles POST /requests/{id}/resume.
func (h *Handler) HandleResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathRequestID(w, r)
	if !ok {
		return
	}
	signer, ok := h.callerSigner(w, ctx)
	if !ok {
		return
	}
	issued, err := h.svc.ResumeApproval(ctx, signer, id)
	h.writeIssued(w, ctx, issued, err)
}

func (h *Handler) writeIssued(w http.ResponseWriter, ctx context.Context, issued models.Issued, err error) {
	if err != nil {
		h.logger.WarnContext(ctx, "certificate approval failed",
			"request_id", requestcontext.RequestID(ctx),
			"request", issued.RequestID,
			"image_ref", issued.ImageRef,
			"metadata_ref", issued.MetadataRef,
			"tx_hash", issued.TxHash,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, IssuedResponse{
		RequestID:     uint64(issued.RequestID),
		CertificateID: uint64(issued.CertificateID),
		Student:       issued.Student.String(),
		ImageRef:      issued.ImageRef,
		MetadataRef:   issued.MetadataRef,
		TxHash:        issued.TxHash,
	})
}

// HandleWithdraw handles POST /requests/{id}/withdraw.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.handleCancel(w, r, h.svc.Withdraw)
}

// HandleCancel handles POST /requests/{id}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.handleCancel(w, r, h.svc.Cancel)
}

// HandleReject handles POST /requests/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, ok := pathRequestID(w, r)
	if !ok {
		return
	}
	signer, ok := h.callerSigner(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.svc.Reject(ctx, signer, id, req.Reason)
	h.writeCancellation(w, ctx, c, err)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request, fn func(context.Context, identity.Signer, domain.RequestID) (models.Cancellation, error)) {
	ctx := r.Context()
	id, ok := pathRequestID(w, r)
	if !ok {
		return
	}
	signer, ok := h.callerSigner(w, ctx)
	if !ok {
		return
	}
	c, err := fn(ctx, signer, id)
	h.writeCancellation(w, ctx, c, err)
}

func (h *Handler) writeCancellation(w http.ResponseWriter, ctx context.Context, c models.Cancellation, err error) {
	if err != nil {
		h.fail(w, ctx, "certificate request cancellation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CancellationResponse{
		RequestID: uint64(c.RequestID),
		Kind:      string(c.Kind),
		Reason:    c.Note,
		TxHash:    c.TxHash,
	})
}

func (h *Handler) callerSigner(w http.ResponseWriter, ctx context.Context) (identity.Signer, bool) {
	signer, err := identity.CallerSigner(ctx, h.signers)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return signer, true
}

func (h *Handler) fail(w http.ResponseWriter, ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func pathRequestID(w http.ResponseWriter, r *http.Request) (domain.RequestID, bool) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
		return 0, false
	}
	return id, true
}

var _ Service = (*service.Manager)(nil)
