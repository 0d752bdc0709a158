package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/phillip/community-platform-go/apperrors"
	"github.com/phillip/community-platform-go/store/memory"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(memory.New().Users, NewTokenManager("test-secret", time.Hour), bcrypt.MinCost)
	require.NoError(t, err)
	return svc
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}

func TestPasswordHashingLongInput(t *testing.T) {
	long := strings.Repeat("a", 100)
	hash, err := HashPassword(long, bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, long))

	// differs only past byte 72
	assert.False(t, CheckPassword(hash, strings.Repeat("a", 99)+"b"))
}

func TestRegisterLongPassword(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	pw := strings.Repeat("correct horse battery staple ", 4)

	_, _, err := svc.Register(ctx, "amara", "amara@example.com", pw)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "amara@example.com", pw)
	assert.NoError(t, err)
	_, err = svc.Verify(ctx, "amara@example.com", pw[:80])
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	id := primitive.NewObjectID()

	tok, err := m.Issue(id)
	require.NoError(t, err)

	got, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenExpiredIsDistinct(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }
	tok, err := m.Issue(primitive.NewObjectID())
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenInvalid(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	foreign, err := other.Issue(primitive.NewObjectID())
	require.NoError(t, err)

	_, err = m.Verify(foreign)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = m.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// "none" algorithm must be refused
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: primitive.NewObjectID().Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// valid signature, bad user id
	bad := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "nope",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err = bad.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRegisterNormalizesAndIssuesToken(t *testing.T) {
	svc := newService(t)

	u, tok, err := svc.Register(context.Background(), "  Amara ", "Amara@Example.COM", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "amara", u.Username)
	assert.Equal(t, "amara@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	id, err := svc.Tokens().Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "amara", "amara@example.com", "secret1")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "kofi", "AMARA@example.com", "secret1")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.Equal(t, "User with this email already exists", apperrors.As(err).Message)

	_, _, err = svc.Register(ctx, "AMARA", "other@example.com", "secret1")
	assert.Equal(t, "User with this username already exists", apperrors.As(err).Message)
}

func TestRegisterWeakCredentials(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	tests := []struct {
		name, username, email, password, msg string
	}{
		{"short password", "amara", "a@example.com", "12345", "Password must be at least 6 characters long"},
		{"short username", "am", "a@example.com", "secret1", "Username must be between 3 and 30 characters"},
		{"long username", "a234567890123456789012345678901", "a@example.com", "secret1", "Username must be between 3 and 30 characters"},
		{"bad email", "amara", "not-an-email", "secret1", "Please provide a valid email address"},
		{"missing fields", "", "a@example.com", "secret1", "Please provide username, email, and password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tt.username, tt.email, tt.password)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
			assert.Equal(t, tt.msg, apperrors.As(err).Message)
		})
	}
}

func TestVerifyDoesNotLeakWhichPartFailed(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "amara", "amara@example.com", "secret1")
	require.NoError(t, err)

	_, wrongPw := svc.Verify(ctx, "amara@example.com", "wrong-password")
	_, noUser := svc.Verify(ctx, "nobody@example.com", "secret1")

	require.Error(t, wrongPw)
	require.Error(t, noUser)
	assert.Equal(t, wrongPw, noUser)
	assert.True(t, apperrors.IsKind(wrongPw, apperrors.KindUnauthenticated))

	u, tok, err := svc.Login(ctx, "AMARA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "amara", u.Username)
	assert.NotEmpty(t, tok)
}
