package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"panchang-backend/internal/domain"
)

func TestClientSignIn(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user_id":    int64(9),
			"email":      "user@example.com",
			"token":      "tok-123",
			"expires_at": time.Now().Add(time.Hour).UTC(),
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	session, err := client.SignIn(context.Background(), " User@Example.com ", "pass12345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v1/signin" {
		t.Fatalf("expected /v1/signin, got %q", gotPath)
	}
	if gotBody["email"] != "user@example.com" {
		t.Fatalf("expected normalized email in the payload, got %v", gotBody["email"])
	}
	if session.UserID != 9 || session.Token != "tok-123" {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestClientSignUpEmailTaken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "already registered", "code": "email_taken"})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.SignUp(context.Background(), "a@b.com", "pass12345", "A")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestClientSignInInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.SignIn(context.Background(), "a@b.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestClientSignOutSendsBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.SignOut(context.Background(), "tok-123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestClientUpdate(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	birth := time.Date(1992, 11, 2, 0, 0, 0, 0, time.UTC)
	update := domain.ProfileUpdate{
		DisplayName: "Meera",
		Timezone:    "Asia/Kolkata",
		BirthDate:   &birth,
		Location:    domain.Location{Label: "Pune", Latitude: 18.52, Longitude: 73.86},
	}
	if err := client.Update(context.Background(), 5, update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v1/users/5/profile" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody["display_name"] != "Meera" || gotBody["birth_date"] != "1992-11-02" {
		t.Fatalf("unexpected payload %v", gotBody)
	}
	loc, ok := gotBody["location"].(map[string]any)
	if !ok || loc["label"] != "Pune" {
		t.Fatalf("expected location block, got %v", gotBody["location"])
	}
}
