package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/requestcontext"
)

var holder = domain.MustIdentity("0x8ba1f109551bd432803012645ac136ddd64dba72")

func TestTokenService_IssueValidate(t *testing.T) {
	svc := NewTokenService("secret", "certflow", time.Hour)
	token, jti, expires, err := svc.Issue(context.Background(), holder)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, holder.String(), claims.Subject)
	assert.Equal(t, jti, claims.ID)
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService("secret", "certflow", time.Hour)

	expiredCtx := requestcontext.WithTime(context.Background(), time.Now().Add(-2*time.Hour))
	expired, _, _, err := svc.Issue(expiredCtx, holder)
	require.NoError(t, err)

	foreign, _, _, err := NewTokenService("other-secret", "certflow", time.Hour).Issue(context.Background(), holder)
	require.NoError(t, err)

	wrongIssuer, _, _, err := NewTokenService("secret", "elsewhere", time.Hour).Issue(context.Background(), holder)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   holder.String(),
		Issuer:    "certflow",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		Issuer:    "certflow",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	badSubjectToken, err := badSubject.SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"expired", expired},
		{"foreign key", foreign},
		{"wrong issuer", wrongIssuer},
		{"alg none", unsigned},
		{"non-address subject", badSubjectToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tc.token)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		})
	}
}
