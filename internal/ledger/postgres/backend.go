// Package postgres runs the registries as tables. Every write bumps the
// ledger_meta block counter first, so writes serialize on that row the way
// transactions serialize in a block.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"certflow/internal/identity"
	"certflow/internal/ledger"
	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/platform/tx"
)

type Backend struct {
	db *sql.DB
}

// New binds to db and deploys the ledger with owner if it has not been
// deployed yet. An existing deployment with another owner is an error.
func New(ctx context.Context, db *sql.DB, owner domain.Identity) (*Backend, error) {
	if owner.IsZeroAddress() {
		return nil, fmt.Errorf("ledger owner is required")
	}
	b := &Backend{db: db}
	_, err := db.ExecContext(ctx, `
		INSERT INTO ledger_meta (id, owner) VALUES (1, $1)
		ON CONFLICT (id) DO NOTHING
	`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("deploy ledger: %w", err)
	}
	deployed, err := b.Owner(ctx)
	if err != nil {
		return nil, err
	}
	if !deployed.Equal(owner) {
		return nil, fmt.Errorf("ledger already deployed with owner %s", deployed)
	}
	return b, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
}

func (b *Backend) exec(ctx context.Context) tx.Executor {
	return tx.Exec(ctx, b.db)
}

// nextBlock locks the meta row for the rest of the transaction.
func (b *Backend) nextBlock(ctx context.Context) (uint64, error) {
	var block uint64
	err := b.exec(ctx).QueryRowContext(ctx, `
		UPDATE ledger_meta SET block_number = block_number + 1 WHERE id = 1
		RETURNING block_number
	`).Scan(&block)
	if err != nil {
		return 0, unavailable("advance block", err)
	}
	return block, nil
}

func (b *Backend) write(ctx context.Context, op string, caller domain.Identity, fn func(ctx context.Context, r *ledger.Receipt) error) (ledger.Receipt, error) {
	var receipt ledger.Receipt
	err := tx.Run(ctx, b.db, func(ctx context.Context) error {
		block, err := b.nextBlock(ctx)
		if err != nil {
			return err
		}
		receipt.BlockNumber = block
		return fn(ctx, &receipt)
	})
	if err != nil {
		return ledger.Receipt{}, err
	}
	receipt.TxHash = ledger.SimulatedTxHash(op, caller)
	return receipt, nil
}

func (b *Backend) GetUser(ctx context.Context, id domain.Identity) (ledger.UserRecord, error) {
	var role, ref string
	err := b.exec(ctx).QueryRowContext(ctx, `
		SELECT role, metadata_ref FROM ledger_users WHERE identity = $1
	`, id.String()).Scan(&role, &ref)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.UserRecord{Identity: id}, nil
	}
	if err != nil {
		return ledger.UserRecord{}, unavailable("get user", err)
	}
	return ledger.UserRecord{
		Identity:    id,
		Role:        domain.RoleFromLedger(role),
		Registered:  true,
		MetadataRef: ref,
	}, nil
}

func (b *Backend) IsUserRegistered(ctx context.Context, id domain.Identity) (bool, error) {
	rec, err := b.GetUser(ctx, id)
	if err != nil {
		return false, err
	}
	return rec.Registered, nil
}

func (b *Backend) GetAllUsers(ctx context.Context) ([]domain.Identity, error) {
	rows, err := b.exec(ctx).QueryContext(ctx, `SELECT identity FROM ledger_users ORDER BY seq`)
	if err != nil {
		return nil, unavailable("list users", err)
	}
	defer rows.Close()

	var ids []domain.Identity
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, unavailable("scan user", err)
		}
		ids = append(ids, domain.Identity(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate users", err)
	}
	return ids, nil
}

func (b *Backend) RegisterUser(ctx context.Context, signer identity.Signer, role domain.Role, metadataRef string) (ledger.Receipt, error) {
	caller := signer.Identity()
	if err := ledger.CheckRegistration(false, role, metadataRef); err != nil {
		return ledger.Receipt{}, err
	}
	return b.write(ctx, "registerUser", caller, func(ctx context.Context, _ *ledger.Receipt) error {
		res, err := b.exec(ctx).ExecContext(ctx, `
			INSERT INTO ledger_users (identity, role, metadata_ref) VALUES ($1, $2, $3)
			ON CONFLICT (identity) DO NOTHING
		`, caller.String(), role.String(), metadataRef)
		if err != nil {
			return unavailable("register user", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ledger.CheckRegistration(true, role, metadataRef)
		}
		return nil
	})
}

func (b *Backend) Owner(ctx context.Context) (domain.Identity, error) {
	var owner string
	err := b.exec(ctx).QueryRowContext(ctx, `SELECT owner FROM ledger_meta WHERE id = 1`).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("ledger not deployed: %w", sentinel.ErrUnavailable)
	}
	if err != nil {
		return "", unavailable("read owner", err)
	}
	return domain.Identity(owner), nil
}

func (b *Backend) IsAuthorizedInstitute(ctx context.Context, institute domain.Identity) (bool, error) {
	var exists bool
	err := b.exec(ctx).QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM ledger_authorized_institutes WHERE identity = $1)
	`, institute.String()).Scan(&exists)
	if err != nil {
		return false, unavailable("read authorization", err)
	}
	return exists, nil
}

func (b *Backend) AuthorizeInstitute(ctx context.Context, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error) {
	caller := signer.Identity()
	return b.write(ctx, "authorizeInstitute", caller, func(ctx context.Context, _ *ledger.Receipt) error {
		if err := b.checkOwner(ctx, caller); err != nil {
			return err
		}
		_, err := b.exec(ctx).ExecContext(ctx, `
			INSERT INTO ledger_authorized_institutes (identity) VALUES ($1)
			ON CONFLICT (identity) DO NOTHING
		`, institute.String())
		if err != nil {
			return unavailable("authorize institute", err)
		}
		return nil
	})
}

func (b *Backend) RevokeInstitute(ctx context.Context, signer identity.Signer, institute domain.Identity) (ledger.Receipt, error) {
	caller := signer.Identity()
	return b.write(ctx, "revokeInstitute", caller, func(ctx context.Context, _ *ledger.Receipt) error {
		if err := b.checkOwner(ctx, caller); err != nil {
			return err
		}
		if _, err := b.exec(ctx).ExecContext(ctx, `
			DELETE FROM ledger_authorized_institutes WHERE identity = $1
		`, institute.String()); err != nil {
			return unavailable("revoke institute", err)
		}
		return nil
	})
}

func (b *Backend) checkOwner(ctx context.Context, caller domain.Identity) error {
	owner, err := b.Owner(ctx)
	if err != nil {
		return err
	}
	return ledger.CheckOwner(owner, caller)
}

func (b *Backend) RequestCounter(ctx context.Context) (uint64, error) {
	var n uint64
	if err := b.exec(ctx).QueryRowContext(ctx, `SELECT request_count FROM ledger_meta WHERE id = 1`).Scan(&n); err != nil {
		return 0, unavailable("read request counter", err)
	}
	return n, nil
}

const selectRequest = `
	SELECT id, student, institute, name, message, student_metadata_ref, approved
	FROM ledger_requests WHERE id = $1
`

func (b *Backend) CertificateRequest(ctx context.Context, id domain.RequestID) (ledger.CertificateRequest, error) {
	return b.loadRequest(ctx, id, false)
}

func (b *Backend) loadRequest(ctx context.Context, id domain.RequestID, forUpdate bool) (ledger.CertificateRequest, error) {
	query := selectRequest
	if forUpdate {
		query += " FOR UPDATE"
	}
	var (
		req                ledger.CertificateRequest
		rawID              int64
		student, institute string
	)
	err := b.exec(ctx).QueryRowContext(ctx, query, int64(id)).Scan(
		&rawID, &student, &institute, &req.Name, &req.Message, &req.StudentMetadataRef, &req.Approved,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.CertificateRequest{}, fmt.Errorf("certificate request %d: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return ledger.CertificateRequest{}, unavailable("load request", err)
	}
	req.ID = domain.RequestID(rawID)
	req.Student = domain.Identity(student)
	req.Institute = domain.Identity(institute)
	return req, nil
}

func (b *Backend) RequestCertificate(ctx context.Context, signer identity.Signer, in ledger.RequestInput) (ledger.Receipt, error) {
	caller := signer.Identity()
	return b.write(ctx, "requestCertificate", caller, func(ctx context.Context, r *ledger.Receipt) error {
		user, err := b.GetUser(ctx, caller)
		if err != nil {
			return err
		}
		if err := ledger.CheckRequest(user, in); err != nil {
			return err
		}
		var next int64
		if err := b.exec(ctx).QueryRowContext(ctx, `
			UPDATE ledger_meta SET request_count = request_count + 1 WHERE id = 1
			RETURNING request_count
		`).Scan(&next); err != nil {
			return unavailable("assign request id", err)
		}
		if _, err := b.exec(ctx).ExecContext(ctx, `
			INSERT INTO ledger_requests (id, student, institute, name, message, student_metadata_ref)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, next, caller.String(), in.Institute.String(), in.Name, in.Message, in.StudentMetadataRef); err != nil {
			return unavailable("insert request", err)
		}
		r.RequestID = domain.RequestID(next)
		return nil
	})
}

func (b *Backend) ApproveCertificateRequest(ctx context.Context, signer identity.Signer, in ledger.ApprovalInput) (ledger.Receipt, error) {
	caller := signer.Identity()
	return b.write(ctx, "approveCertificateRequest", caller, func(ctx context.Context, r *ledger.Receipt) error {
		req, err := b.loadRequest(ctx, in.RequestID, true)
		if errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("%w: request does not exist", sentinel.ErrRejected)
		}
		if err != nil {
			return err
		}
		authorized, err := b.IsAuthorizedInstitute(ctx, caller)
		if err != nil {
			return err
		}
		if err := ledger.CheckApproval(req, caller, authorized, in); err != nil {
			return err
		}

		if _, err := b.exec(ctx).ExecContext(ctx, `
			UPDATE ledger_requests SET approved = TRUE WHERE id = $1
		`, int64(in.RequestID)); err != nil {
			return unavailable("mark approved", err)
		}
		var certID int64
		if err := b.exec(ctx).QueryRowContext(ctx, `
			UPDATE ledger_meta SET token_count = token_count + 1 WHERE id = 1
			RETURNING token_count
		`).Scan(&certID); err != nil {
			return unavailable("assign token id", err)
		}
		if _, err := b.exec(ctx).ExecContext(ctx, `
			INSERT INTO ledger_certificates
				(id, holder, certificate_type, institution_name, issuer, token_uri, request_id, name, issued_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, certID, req.Student.String(), in.CertificateType, in.InstitutionName, caller.String(),
			in.MetadataRef, int64(in.RequestID), req.Name, time.Now().UTC().Truncate(time.Second)); err != nil {
			return unavailable("mint certificate", err)
		}
		r.RequestID = in.RequestID
		r.CertificateID = domain.CertificateID(certID)
		return nil
	})
}

func (b *Backend) CancelCertificateRequest(ctx context.Context, signer identity.Signer, id domain.RequestID) (ledger.Receipt, error) {
	caller := signer.Identity()
	return b.write(ctx, "cancelCertificateRequest", caller, func(ctx context.Context, r *ledger.Receipt) error {
		req, err := b.loadRequest(ctx, id, true)
		if errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("%w: request does not exist", sentinel.ErrRejected)
		}
		if err != nil {
			return err
		}
		if err := ledger.CheckCancel(req, caller); err != nil {
			return err
		}
		if _, err := b.exec(ctx).ExecContext(ctx, `DELETE FROM ledger_requests WHERE id = $1`, int64(id)); err != nil {
			return unavailable("delete request", err)
		}
		r.RequestID = id
		return nil
	})
}

func (b *Backend) StudentCertificates(ctx context.Context, holder domain.Identity) ([]domain.CertificateID, error) {
	rows, err := b.exec(ctx).QueryContext(ctx, `
		SELECT id FROM ledger_certificates WHERE holder = $1 ORDER BY id
	`, holder.String())
	if err != nil {
		return nil, unavailable("list certificates", err)
	}
	defer rows.Close()

	var ids []domain.CertificateID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable("scan certificate id", err)
		}
		ids = append(ids, domain.CertificateID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate certificates", err)
	}
	return ids, nil
}

func (b *Backend) CertificateDetails(ctx context.Context, id domain.CertificateID) (ledger.CertificateDetails, error) {
	var (
		d              ledger.CertificateDetails
		issuer, holder string
	)
	err := b.exec(ctx).QueryRowContext(ctx, `
		SELECT name, issuer, institution_name, issued_at, certificate_type, holder
		FROM ledger_certificates WHERE id = $1
	`, int64(id)).Scan(&d.Name, &issuer, &d.InstitutionName, &d.IssueDate, &d.CertificateType, &holder)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.CertificateDetails{}, fmt.Errorf("certificate %d: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return ledger.CertificateDetails{}, unavailable("load certificate", err)
	}
	d.ID = id
	d.Institute = domain.Identity(issuer)
	d.Holder = domain.Identity(holder)
	d.IssueDate = d.IssueDate.UTC()
	return d, nil
}

func (b *Backend) TokenURI(ctx context.Context, id domain.CertificateID) (string, error) {
	var uri string
	err := b.exec(ctx).QueryRowContext(ctx, `SELECT token_uri FROM ledger_certificates WHERE id = $1`, int64(id)).Scan(&uri)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("certificate %d: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return "", unavailable("load token uri", err)
	}
	return uri, nil
}

func (b *Backend) Health(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

var _ ledger.Backend = (*Backend)(nil)
