package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"certflow/internal/issuance/models"
	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/platform/tx"
)

// PostgresCancellations persists the cancellation history in
// request_cancellations.
type PostgresCancellations struct {
	db *sql.DB
}

func NewPostgresCancellations(db *sql.DB) *PostgresCancellations {
	return &PostgresCancellations{db: db}
}

func (p *PostgresCancellations) Record(ctx context.Context, c models.Cancellation) error {
	_, err := tx.Exec(ctx, p.db).ExecContext(ctx, `
		INSERT INTO request_cancellations
			(request_id, student, institute, reason, note, cancelled_by, tx_hash, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
		ON CONFLICT (request_id) DO NOTHING
	`, int64(c.RequestID), c.Student.String(), c.Institute.String(), string(c.Kind), c.Note,
		c.CancelledBy.String(), c.TxHash, nullTime(c))
	if err != nil {
		return fmt.Errorf("record cancellation: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (p *PostgresCancellations) Get(ctx context.Context, id domain.RequestID) (models.Cancellation, error) {
	var (
		c                               models.Cancellation
		requestID                       int64
		student, institute, kind, actor string
	)
	err := tx.Exec(ctx, p.db).QueryRowContext(ctx, `
		SELECT request_id, student, institute, reason, note, cancelled_by, tx_hash, cancelled_at
		FROM request_cancellations WHERE request_id = $1
	`, int64(id)).Scan(&requestID, &student, &institute, &kind, &c.Note, &actor, &c.TxHash, &c.CancelledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Cancellation{}, fmt.Errorf("cancellation of request %d: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.Cancellation{}, fmt.Errorf("read cancellation: %w: %w", sentinel.ErrUnavailable, err)
	}
	c.RequestID = domain.RequestID(requestID)
	c.Student = domain.Identity(student)
	c.Institute = domain.Identity(institute)
	c.Kind = models.CancelKind(kind)
	c.CancelledBy = domain.Identity(actor)
	return c, nil
}

func nullTime(c models.Cancellation) sql.NullTime {
	return sql.NullTime{Time: c.CancelledAt, Valid: !c.CancelledAt.IsZero()}
}
