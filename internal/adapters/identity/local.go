package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"panchang-backend/internal/domain"
	infrahttp "panchang-backend/internal/infra/http"
)

// Local issues sessions against the module's own user store. Passwords are
// bcrypt-hashed, tokens are HS256 JWTs verified by the API middleware.
type Local struct {
	creds    domain.CredentialRepo
	users    domain.UserRepo
	secret   []byte
	tokenTTL time.Duration
}

var _ domain.Identity = (*Local)(nil)

// NewLocal creates the self-hosted identity provider.
func NewLocal(creds domain.CredentialRepo, users domain.UserRepo, secret string, tokenTTL time.Duration) *Local {
	if tokenTTL <= 0 {
		tokenTTL = 720 * time.Hour
	}
	return &Local{creds: creds, users: users, secret: []byte(secret), tokenTTL: tokenTTL}
}

func (l *Local) SignUp(ctx context.Context, email, password, displayName string) (domain.Session, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return domain.Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Session{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := l.creds.CreateWithPassword(email, strings.TrimSpace(displayName), string(hash))
	if err != nil {
		return domain.Session{}, err
	}
	return l.session(user)
}

func (l *Local) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	user, hash, err := l.creds.CredentialsByEmail(normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Session{}, domain.ErrInvalidCredentials
		}
		return domain.Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	return l.session(user)
}

// SignOut is a no-op in local mode: tokens are stateless and expire on
// their own.
func (l *Local) SignOut(ctx context.Context, token string) error {
	return nil
}

func (l *Local) Update(ctx context.Context, userID int64, update domain.ProfileUpdate) error {
	_, err := l.users.UpdateProfile(userID, update)
	return err
}

func (l *Local) session(user domain.User) (domain.Session, error) {
	token, err := infrahttp.SignToken(l.secret, user.ID, l.tokenTTL)
	if err != nil {
		return domain.Session{}, fmt.Errorf("sign token: %w", err)
	}
	return domain.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: time.Now().Add(l.tokenTTL),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: malformed email", domain.ErrInvalidCredentials)
	}
	if len(password) < 8 {
		return fmt.Errorf("%w: password too short", domain.ErrInvalidCredentials)
	}
	return nil
}
