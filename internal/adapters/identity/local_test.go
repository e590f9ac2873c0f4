package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"panchang-backend/internal/domain"
	infrahttp "panchang-backend/internal/infra/http"
)

type stubCreds struct {
	user     domain.User
	hash     string
	err      error
	gotEmail string
	gotHash  string
}

func (s *stubCreds) CreateWithPassword(email, displayName, passwordHash string) (domain.User, error) {
	s.gotEmail = email
	s.gotHash = passwordHash
	if s.err != nil {
		return domain.User{}, s.err
	}
	return s.user, nil
}

func (s *stubCreds) CredentialsByEmail(email string) (domain.User, string, error) {
	s.gotEmail = email
	if s.err != nil {
		return domain.User{}, "", s.err
	}
	return s.user, s.hash, nil
}

type stubUsers struct {
	updated *domain.ProfileUpdate
}

func (s *stubUsers) GetByID(int64) (domain.User, error)     { return domain.User{}, nil }
func (s *stubUsers) GetByEmail(string) (domain.User, error) { return domain.User{}, nil }
func (s *stubUsers) UpsertByTelegram(domain.TelegramProfile) (domain.User, bool, error) {
	return domain.User{}, false, nil
}
func (s *stubUsers) GetByTelegram(int64) (domain.User, error) { return domain.User{}, nil }
func (s *stubUsers) UpdateProfile(userID int64, update domain.ProfileUpdate) (domain.User, error) {
	s.updated = &update
	return domain.User{ID: userID}, nil
}
func (s *stubUsers) UpdateDailyTime(int64, *time.Time) error           { return nil }
func (s *stubUsers) UpdateTimezone(int64, string) error                { return nil }
func (s *stubUsers) ListForDailyTime(time.Time) ([]domain.User, error) { return nil, nil }
func (s *stubUsers) ReserveAsk(int64, time.Time) (domain.AskState, error) {
	return domain.AskState{}, nil
}
func (s *stubUsers) DeleteUserData(int64) error { return nil }

func TestLocalSignUp(t *testing.T) {
	creds := &stubCreds{user: domain.User{ID: 7, Email: "arjun@example.com"}}
	local := NewLocal(creds, &stubUsers{}, "secret", time.Hour)

	session, err := local.SignUp(context.Background(), " Arjun@Example.com ", "longenough", "Arjun")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.gotEmail != "arjun@example.com" {
		t.Fatalf("expected normalized email, got %q", creds.gotEmail)
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.gotHash), []byte("longenough")) != nil {
		t.Fatalf("expected stored hash to match the password")
	}
	claims, err := infrahttp.ParseToken([]byte("secret"), session.Token)
	if err != nil {
		t.Fatalf("expected issued token to verify: %v", err)
	}
	if claims.UserID != 7 {
		t.Fatalf("expected token for user 7, got %d", claims.UserID)
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected a future expiry")
	}
}

func TestLocalSignUpValidation(t *testing.T) {
	local := NewLocal(&stubCreds{}, &stubUsers{}, "secret", time.Hour)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "longenough"},
		{"no at sign", "not-an-email", "longenough"},
		{"short password", "a@b.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := local.SignUp(context.Background(), tc.email, tc.password, "")
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLocalSignUpEmailTaken(t *testing.T) {
	local := NewLocal(&stubCreds{err: domain.ErrEmailTaken}, &stubUsers{}, "secret", time.Hour)

	_, err := local.SignUp(context.Background(), "a@b.com", "longenough", "")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLocalSignIn(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("longenough"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	creds := &stubCreds{user: domain.User{ID: 3, Email: "a@b.com"}, hash: string(hash)}
	local := NewLocal(creds, &stubUsers{}, "secret", time.Hour)

	session, err := local.SignIn(context.Background(), "a@b.com", "longenough")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.UserID != 3 || session.Token == "" {
		t.Fatalf("expected a session for user 3, got %+v", session)
	}

	if _, err := local.SignIn(context.Background(), "a@b.com", "wrongpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials on wrong password, got %v", err)
	}
}

func TestLocalSignInUnknownEmail(t *testing.T) {
	local := NewLocal(&stubCreds{err: domain.ErrNotFound}, &stubUsers{}, "secret", time.Hour)

	_, err := local.SignIn(context.Background(), "nobody@b.com", "longenough")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestLocalUpdateForwards(t *testing.T) {
	users := &stubUsers{}
	local := NewLocal(&stubCreds{}, users, "secret", time.Hour)

	update := domain.ProfileUpdate{DisplayName: "Meera", Timezone: "Asia/Kolkata"}
	if err := local.Update(context.Background(), 11, update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if users.updated == nil || users.updated.DisplayName != "Meera" {
		t.Fatalf("expected the update to reach the repo, got %+v", users.updated)
	}

	if err := local.SignOut(context.Background(), "whatever"); err != nil {
		t.Fatalf("expected sign-out to be a no-op, got %v", err)
	}
}
