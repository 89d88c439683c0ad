package evm

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"certflow/internal/ledger"
	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

func single[T any](method string, out []any) (T, error) {
	var zero T
	if len(out) != 1 {
		return zero, fmt.Errorf("%s: %w: expected 1 value, got %d", method, sentinel.ErrUnavailable, len(out))
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, fmt.Errorf("%s: %w: unexpected type %T", method, sentinel.ErrUnavailable, out[0])
	}
	return v, nil
}

func field[T any](method string, out []any, i int) (T, error) {
	var zero T
	if i >= len(out) {
		return zero, fmt.Errorf("%s: %w: missing output %d", method, sentinel.ErrUnavailable, i)
	}
	v, ok := out[i].(T)
	if !ok {
		return zero, fmt.Errorf("%s: %w: output %d has type %T", method, sentinel.ErrUnavailable, i, out[i])
	}
	return v, nil
}

func decodeUser(out []any) (role, ref string, err error) {
	if role, err = field[string]("getUser", out, 0); err != nil {
		return "", "", err
	}
	if ref, err = field[string]("getUser", out, 1); err != nil {
		return "", "", err
	}
	return role, ref, nil
}

// decodeRequest maps a certificateRequests tuple. Mappings return a zeroed
// tuple for unknown or deleted ids, which reads as not found.
func decodeRequest(id domain.RequestID, out []any) (ledger.CertificateRequest, error) {
	const method = "certificateRequests"
	student, err := field[common.Address](method, out, 0)
	if err != nil {
		return ledger.CertificateRequest{}, err
	}
	if student == (common.Address{}) {
		return ledger.CertificateRequest{}, fmt.Errorf("certificate request %d: %w", id, sentinel.ErrNotFound)
	}
	institute, err := field[common.Address](method, out, 1)
	if err != nil {
		return ledger.CertificateRequest{}, err
	}
	req := ledger.CertificateRequest{
		ID:        id,
		Student:   domain.IdentityFromAddress(student),
		Institute: domain.IdentityFromAddress(institute),
	}
	if req.Name, err = field[string](method, out, 2); err != nil {
		return ledger.CertificateRequest{}, err
	}
	if req.Message, err = field[string](method, out, 3); err != nil {
		return ledger.CertificateRequest{}, err
	}
	if req.StudentMetadataRef, err = field[string](method, out, 4); err != nil {
		return ledger.CertificateRequest{}, err
	}
	if req.Approved, err = field[bool](method, out, 5); err != nil {
		return ledger.CertificateRequest{}, err
	}
	return req, nil
}

func decodeDetails(id domain.CertificateID, out []any) (ledger.CertificateDetails, error) {
	const method = "getCertificateDetails"
	d := ledger.CertificateDetails{ID: id}
	var err error
	if d.Name, err = field[string](method, out, 0); err != nil {
		return ledger.CertificateDetails{}, err
	}
	institute, err := field[common.Address](method, out, 1)
	if err != nil {
		return ledger.CertificateDetails{}, err
	}
	issued, err := field[*big.Int](method, out, 2)
	if err != nil {
		return ledger.CertificateDetails{}, err
	}
	if d.CertificateType, err = field[string](method, out, 3); err != nil {
		return ledger.CertificateDetails{}, err
	}
	holder, err := field[common.Address](method, out, 4)
	if err != nil {
		return ledger.CertificateDetails{}, err
	}
	if holder == (common.Address{}) {
		return ledger.CertificateDetails{}, fmt.Errorf("certificate %d: %w", id, sentinel.ErrNotFound)
	}
	d.Institute = domain.IdentityFromAddress(institute)
	d.Holder = domain.IdentityFromAddress(holder)
	d.IssueDate = time.Unix(issued.Int64(), 0).UTC()
	return d, nil
}

// eventID returns the first indexed uint256 of the named event in receipt.
func (b *Backend) eventID(receipt *types.Receipt, event string) (uint64, bool) {
	if receipt == nil {
		return 0, false
	}
	ev, ok := b.contracts.CertificateRegistry.Events[event]
	if !ok {
		return 0, false
	}
	for _, l := range receipt.Logs {
		if len(l.Topics) < 2 || l.Topics[0] != ev.ID {
			continue
		}
		return new(big.Int).SetBytes(l.Topics[1].Bytes()).Uint64(), true
	}
	return 0, false
}
