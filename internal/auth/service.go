package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/glowcart/storefront-api/internal/common"
	"github.com/glowcart/storefront-api/internal/store"
)

const (
	defaultAccessTTL = 15 * time.Minute
	rolesClaim       = "roles"
)

// Users is the persistence slice the auth service needs.
type Users interface {
	Create(ctx context.Context, email, name, passwordHash string, roles []string) (store.User, error)
	GetByEmail(ctx context.Context, email string) (store.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (store.User, error)
}

// User is the safe subset of the user model returned to clients.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginResult bundles the token material returned after a successful login.
type LoginResult struct {
	User        User      `json:"user"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Identity is the decoded content of a valid access token.
type Identity struct {
	UserID uuid.UUID
	Roles  []string
}

// Service issues and validates access tokens and manages credentials.
type Service struct {
	users     Users
	secret    []byte
	accessTTL time.Duration
	issuer    string
	audience  string
	clockSkew time.Duration
	now       func() time.Time
}

// Config configures the auth service.
type Config struct {
	Users          Users
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// NewService constructs a Service with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Users == nil {
		return nil, errors.New("auth: users store is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "glowcart-api"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "glowcart-storefront"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &Service{
		users:     cfg.Users,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
		now:       time.Now,
	}, nil
}

// WithNow lets tests override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates a new customer account.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, common.NewAppError("VALIDATION_ERROR", "name is required", http.StatusBadRequest, nil)
	}
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" {
		return User{}, common.NewAppError("VALIDATION_ERROR", "email is required", http.StatusBadRequest, nil)
	}
	if len(password) < 8 {
		return User{}, common.NewAppError("VALIDATION_ERROR", "password must be at least 8 characters", http.StatusBadRequest, nil)
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, normalized, name, hash, []string{"customer"})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return toUser(created), nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	invalid := common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)

	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" || password == "" {
		return LoginResult{}, invalid
	}
	u, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		return LoginResult{}, invalid
	}
	ok, err := argon2id.ComparePasswordAndHash(password, u.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, invalid
	}

	token, expiresAt, err := s.signAccessToken(u.ID, u.Roles)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	return LoginResult{User: toUser(u), AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Me fetches the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return toUser(u), nil
}

// ParseAccessToken validates a token and returns the identity it carries.
func (s *Service) ParseAccessToken(token string) (Identity, error) {
	unauthorized := func(err error) error {
		return common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Identity{}, unauthorized(nil)
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return Identity{}, unauthorized(err)
	}
	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(s.now)),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	}
	if s.clockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(s.clockSkew))
	}
	if err := jwt.Validate(parsed, options...); err != nil {
		return Identity{}, unauthorized(err)
	}

	userID, err := uuid.Parse(parsed.Subject())
	if err != nil {
		return Identity{}, unauthorized(err)
	}
	return Identity{UserID: userID, Roles: rolesFromToken(parsed)}, nil
}

func (s *Service) signAccessToken(userID uuid.UUID, roles []string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(userID.String()).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(rolesClaim, roles).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func rolesFromToken(tok jwt.Token) []string {
	raw, ok := tok.Get(rolesClaim)
	if !ok {
		return nil
	}
	values, ok := raw.([]any)
	if !ok {
		return nil
	}
	var roles []string
	for _, v := range values {
		if s, ok := v.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

func toUser(u store.User) User {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return User{ID: u.ID, Name: u.Name, Email: u.Email, Roles: roles, CreatedAt: u.CreatedAt}
}
