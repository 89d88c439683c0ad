package ledger

import (
	"fmt"
	"strings"

	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

// The checks below are the registry contract's require() conditions, shared
// by the backends that simulate it.

func rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{sentinel.ErrRejected}, args...)...)
}

// CheckRegistration validates a registerUser call.
func CheckRegistration(alreadyRegistered bool, role domain.Role, metadataRef string) error {
	if alreadyRegistered {
		return rejectf("user already registered")
	}
	if !role.IsSet() {
		return rejectf("invalid role")
	}
	if strings.TrimSpace(metadataRef) == "" {
		return rejectf("metadata hash required")
	}
	return nil
}

// CheckOwner validates an owner-only call.
func CheckOwner(owner, caller domain.Identity) error {
	if !owner.Equal(caller) {
		return rejectf("caller is not the owner")
	}
	return nil
}

// CheckRequest validates a requestCertificate call.
func CheckRequest(caller UserRecord, in RequestInput) error {
	if !caller.Registered || caller.Role != domain.RoleStudent {
		return rejectf("only registered students can request certificates")
	}
	if in.Institute.IsZeroAddress() {
		return rejectf("invalid institute")
	}
	if strings.TrimSpace(in.Name) == "" {
		return rejectf("certificate name required")
	}
	return nil
}

// CheckApproval validates an approveCertificateRequest call against the
// current request and the caller's live authorization.
func CheckApproval(req CertificateRequest, caller domain.Identity, callerAuthorized bool, in ApprovalInput) error {
	if !callerAuthorized {
		return rejectf("institute not authorized")
	}
	if !req.Institute.Equal(caller) {
		return rejectf("request is addressed to another institute")
	}
	if req.Approved {
		return rejectf("request already approved")
	}
	if strings.TrimSpace(in.MetadataRef) == "" {
		return rejectf("token uri required")
	}
	return nil
}

// CheckCancel validates a cancelCertificateRequest call.
func CheckCancel(req CertificateRequest, caller domain.Identity) error {
	if req.Approved {
		return rejectf("request already approved")
	}
	if !req.Student.Equal(caller) && !req.Institute.Equal(caller) {
		return rejectf("only the student or the institute can cancel")
	}
	return nil
}
