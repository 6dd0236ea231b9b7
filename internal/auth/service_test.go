package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/glowcart/storefront-api/internal/common"
	"github.com/glowcart/storefront-api/internal/store"
)

type memUsers struct {
	byEmail map[string]store.User
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]store.User{}}
}

func (m *memUsers) Create(_ context.Context, email, name, passwordHash string, roles []string) (store.User, error) {
	if _, exists := m.byEmail[email]; exists {
		return store.User{}, &pgconn.PgError{Code: "23505"}
	}
	u := store.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Roles:        roles,
		CreatedAt:    time.Now(),
	}
	m.byEmail[email] = u
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (store.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return store.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (store.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return store.User{}, pgx.ErrNoRows
}

func newTestService(t *testing.T) (*Service, *memUsers) {
	t.Helper()
	users := newMemUsers()
	svc, err := NewService(Config{Users: users, Secret: "test-secret-key", AccessTokenTTL: time.Hour})
	require.NoError(t, err)
	return svc, users
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "priya@example.com", "supersecret")
	require.Error(t, err)
	_, err = svc.Register(ctx, "Priya", "", "supersecret")
	require.Error(t, err)
	_, err = svc.Register(ctx, "Priya", "priya@example.com", "short")
	require.Error(t, err)

	user, err := svc.Register(ctx, "Priya", " Priya@Example.com ", "supersecret")
	require.NoError(t, err)
	require.Equal(t, "priya@example.com", user.Email)
	require.Equal(t, []string{"customer"}, user.Roles)

	_, err = svc.Register(ctx, "Priya", "priya@example.com", "supersecret")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "EMAIL_ALREADY_USED", appErr.Code)
}

func TestLoginAndTokenRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Priya", "priya@example.com", "supersecret")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "priya@example.com", "wrong-password")
	require.Error(t, err)

	result, err := svc.Login(ctx, "priya@example.com", "supersecret")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)

	id, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, registered.ID, id.UserID)
	require.Equal(t, []string{"customer"}, id.Roles)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Priya", "priya@example.com", "supersecret")
	require.NoError(t, err)

	issued := time.Now().Add(-2 * time.Hour)
	svc.WithNow(func() time.Time { return issued })
	result, err := svc.Login(ctx, "priya@example.com", "supersecret")
	require.NoError(t, err)

	svc.WithNow(time.Now)
	_, err = svc.ParseAccessToken(result.AccessToken)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsForeignSignature(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Priya", "priya@example.com", "supersecret")
	require.NoError(t, err)
	result, err := svc.Login(ctx, "priya@example.com", "supersecret")
	require.NoError(t, err)

	other, err := NewService(Config{Users: users, Secret: "a-different-secret"})
	require.NoError(t, err)
	_, err = other.ParseAccessToken(result.AccessToken)
	require.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Priya", "priya@example.com", "supersecret")
	require.NoError(t, err)
	admin := users.byEmail["priya@example.com"]
	admin.Roles = []string{"customer", "admin"}
	users.byEmail["priya@example.com"] = admin

	customerHash := users.byEmail["priya@example.com"].PasswordHash
	users.byEmail["arjun@example.com"] = store.User{
		ID: uuid.New(), Email: "arjun@example.com", Name: "Arjun",
		PasswordHash: customerHash, Roles: []string{"customer"}, CreatedAt: time.Now(),
	}

	mw := Middleware{Service: svc}
	handler := mw.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	adminLogin, err := svc.Login(ctx, "priya@example.com", "supersecret")
	require.NoError(t, err)
	customerLogin, err := svc.Login(ctx, "arjun@example.com", "supersecret")
	require.NoError(t, err)

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"admin allowed", adminLogin.AccessToken, http.StatusNoContent},
		{"customer forbidden", customerLogin.AccessToken, http.StatusForbidden},
		{"anonymous rejected", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code)
		})
	}
}
