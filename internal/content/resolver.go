package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"certflow/internal/content/metrics"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/sentinel"
)

const (
	DefaultGatewayTemplate = "https://ipfs.io/ipfs/%s"
	DefaultMaxBlobBytes    = 1 << 20
)

// Resolver is the only way the services touch the content store. Every
// fetched blob is checked against its reference before it is returned.
type Resolver struct {
	backend         Backend
	gatewayTemplate string
	maxBlobBytes    int64
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

type Option func(*Resolver)

func WithGatewayTemplate(tmpl string) Option {
	return func(r *Resolver) {
		if tmpl != "" {
			r.gatewayTemplate = tmpl
		}
	}
}

func WithMaxBlobBytes(n int64) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxBlobBytes = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func NewResolver(backend Backend, opts ...Option) *Resolver {
	r := &Resolver{
		backend:         backend,
		gatewayTemplate: DefaultGatewayTemplate,
		maxBlobBytes:    DefaultMaxBlobBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Put stores data and returns its reference once the store has confirmed it.
func (r *Resolver) Put(ctx context.Context, data []byte) (string, error) {
	start := time.Now()
	if len(data) == 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content is empty")
	}
	if int64(len(data)) > r.maxBlobBytes {
		return "", dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("content is %d bytes, limit is %d", len(data), r.maxBlobBytes))
	}
	want, err := ComputeCID(data)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "hash content")
	}

	got, err := r.backend.Put(ctx, data)
	if err == nil && !got.Equals(want) {
		err = fmt.Errorf("%w: store assigned %s, expected %s", sentinel.ErrIntegrity, got, want)
	}
	r.observe("put", start, err)
	if err != nil {
		r.logWarn(ctx, "content_put_failed", "error", err, "bytes", len(data))
		return "", translatePut(err)
	}
	if r.metrics != nil {
		r.metrics.AddBytesStored(len(data))
	}
	return FormatRef(got), nil
}

// PutJSON encodes v and stores it.
func (r *Resolver) PutJSON(ctx context.Context, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "encode content")
	}
	return r.Put(ctx, data)
}

// Get fetches and verifies the blob behind ref.
func (r *Resolver) Get(ctx context.Context, ref string) ([]byte, error) {
	start := time.Now()
	id, err := ParseRef(ref)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMetadataUnresolvable, "invalid content reference")
	}
	data, err := r.backend.Get(ctx, id)
	if err == nil && int64(len(data)) > r.maxBlobBytes {
		err = fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	if err == nil {
		err = Verify(id, data)
	}
	r.observe("get", start, err)
	if err != nil {
		r.logWarn(ctx, "content_get_failed", "ref", ref, "error", err)
		return nil, translateGet(ref, err)
	}
	return data, nil
}

// GetJSON fetches ref and decodes it into v.
func (r *Resolver) GetJSON(ctx context.Context, ref string, v any) error {
	data, err := r.Get(ctx, ref)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeMetadataUnresolvable, "content at "+ref+" is not valid JSON")
	}
	return nil
}

// GatewayURL renders ref through the public gateway. Non-content URLs are
// returned unchanged.
func (r *Resolver) GatewayURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	id, err := ParseRef(ref)
	if err != nil {
		return ref
	}
	return fmt.Sprintf(r.gatewayTemplate, id.String())
}

func (r *Resolver) Health(ctx context.Context) error {
	return r.backend.Health(ctx)
}

func translatePut(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "content upload timed out")
	case errors.Is(err, ErrTooLarge), errors.Is(err, sentinel.ErrInvalidInput):
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "content rejected by store")
	default:
		return dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "content store unavailable")
	}
}

func translateGet(ref string, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeMetadataUnresolvable, "content "+ref+" not found")
	case errors.Is(err, sentinel.ErrIntegrity):
		return dErrors.Wrap(err, dErrors.CodeMetadataUnresolvable, "content "+ref+" failed integrity check")
	default:
		return dErrors.Wrap(err, dErrors.CodeMetadataUnresolvable, "content "+ref+" unavailable")
	}
}

func (r *Resolver) observe(op string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, sentinel.ErrIntegrity):
		outcome = "integrity"
	default:
		outcome = "error"
	}
	r.metrics.ObserveOperation(op, outcome, time.Since(start).Seconds())
}

func (r *Resolver) logWarn(ctx context.Context, msg string, args ...any) {
	if r.logger != nil {
		r.logger.WarnContext(ctx, msg, args...)
	}
}
