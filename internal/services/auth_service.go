package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"event-booking/internal/status"
	"event-booking/internal/storage"
	"event-booking/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"

	demoAvatar = "https://lh3.googleusercontent.com/a/default-user"
)

type AuthConfig struct {
	Secret             []byte
	SessionTTL         time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// SessionToken is what sign-in hands back to the client.
type SessionToken struct {
	Token   string             `json:"token"`
	Session models.UserSession `json:"session"`
}

// UserUpdate holds the user fields a profile edit may change.
type UserUpdate struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Avatar *string `json:"avatar"`
}

// AuthService issues mock sessions. Sign-in trusts any email it has no
// account for; accounts created through SignUp are password checked.
type AuthService struct {
	store      storage.Store
	cfg        AuthConfig
	oauth      *oauth2.Config
	bcryptCost int
	now        func() time.Time

	mu sync.Mutex
}

func NewAuthService(store storage.Store, cfg AuthConfig) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		store: store,
		cfg:   cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// UserIDFor derives a stable user id from an email address so the same
// person finds their tickets again after signing out.
func UserIDFor(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+normalizeEmail(email))).String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c credentials) validate(withName bool) error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Skip.When(!withName), validation.By(requiredTrimmed)),
		validation.Field(&c.Email, validation.By(requiredTrimmed), validation.By(plausibleEmail)),
		validation.Field(&c.Password, validation.Required),
	)
}

func (s *AuthService) account(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	found, err := s.store.Load(ctx, storage.AccountKey(email), &account)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &account, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (SessionToken, error) {
	if err := (credentials{Email: email, Password: password}).validate(false); err != nil {
		return SessionToken{}, err
	}
	email = normalizeEmail(email)

	account, err := s.account(ctx, email)
	if err != nil {
		return SessionToken{}, err
	}

	user := models.User{ID: UserIDFor(email), Email: email}
	if account != nil {
		if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
			return SessionToken{}, status.ErrInvalidCredentials
		}
		user.ID = account.UserID
		user.Name = account.Name
	} else {
		user.Name, _, _ = strings.Cut(email, "@")
	}

	return s.startSession(ctx, user, ProviderPassword)
}

func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (SessionToken, error) {
	if err := (credentials{Name: name, Email: email, Password: password}).validate(true); err != nil {
		return SessionToken{}, err
	}
	email = normalizeEmail(email)

	s.mu.Lock()
	existing, err := s.account(ctx, email)
	if err != nil {
		s.mu.Unlock()
		return SessionToken{}, err
	}
	if existing != nil {
		s.mu.Unlock()
		return SessionToken{}, status.ErrAccountExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		s.mu.Unlock()
		return SessionToken{}, fmt.Errorf("hash password: %w", err)
	}
	account := models.Account{
		UserID:       UserIDFor(email),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
	}
	err = s.store.Save(ctx, storage.AccountKey(email), account)
	s.mu.Unlock()
	if err != nil {
		slog.Error("Failed to save account", "error", err, "email", email)
		return SessionToken{}, err
	}

	return s.startSession(ctx, models.User{ID: account.UserID, Name: account.Name, Email: email}, ProviderPassword)
}

// SignInWithProvider signs in the demo user. Only Google is offered.
func (s *AuthService) SignInWithProvider(ctx context.Context, provider string) (SessionToken, error) {
	if !strings.EqualFold(provider, ProviderGoogle) {
		return SessionToken{}, status.ErrUnsupportedProvider
	}

	avatar := demoAvatar
	user := models.User{
		ID:     UserIDFor("demo@example.com"),
		Name:   "Demo User",
		Email:  "demo@example.com",
		Avatar: &avatar,
	}
	return s.startSession(ctx, user, ProviderGoogle)
}

// ProviderLoginURL is the Google consent page for clients doing the real
// redirect flow.
func (s *AuthService) ProviderLoginURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (s *AuthService) startSession(ctx context.Context, user models.User, provider string) (SessionToken, error) {
	now := s.now()
	session := models.UserSession{
		ID:        uuid.NewString(),
		User:      user,
		Provider:  provider,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}).SignedString(s.cfg.Secret)
	if err != nil {
		return SessionToken{}, fmt.Errorf("sign session token: %w", err)
	}

	if err := s.store.Save(ctx, storage.SessionKey(session.ID), session); err != nil {
		slog.Error("Failed to save session", "error", err, "user_id", user.ID)
		return SessionToken{}, err
	}

	slog.Info("User signed in", "user_id", user.ID, "provider", provider)
	return SessionToken{Token: token, Session: session}, nil
}

func (s *AuthService) sessionID(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || claims.ID == "" {
		return "", status.ErrUnauthorized
	}
	return claims.ID, nil
}

// Current resolves a token to its live session.
func (s *AuthService) Current(ctx context.Context, token string) (models.UserSession, error) {
	id, err := s.sessionID(token)
	if err != nil {
		return models.UserSession{}, err
	}

	var session models.UserSession
	found, err := s.store.Load(ctx, storage.SessionKey(id), &session)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			return models.UserSession{}, status.ErrUnauthorized
		}
		return models.UserSession{}, err
	}
	if !found || session.Expired(s.now()) {
		return models.UserSession{}, status.ErrUnauthorized
	}
	return session, nil
}

func (s *AuthService) SignOut(ctx context.Context, token string) error {
	id, err := s.sessionID(token)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, storage.SessionKey(id))
}

// UpdateProfile merges updates into the signed-in user.
func (s *AuthService) UpdateProfile(ctx context.Context, token string, updates UserUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.Current(ctx, token)
	if err != nil {
		return models.User{}, err
	}

	if updates.Name != nil {
		session.User.Name = strings.TrimSpace(*updates.Name)
	}
	if updates.Email != nil {
		session.User.Email = strings.TrimSpace(*updates.Email)
	}
	if updates.Avatar != nil {
		avatar := *updates.Avatar
		session.User.Avatar = &avatar
	}

	if err := s.store.Save(ctx, storage.SessionKey(session.ID), session); err != nil {
		return models.User{}, err
	}
	return session.User, nil
}
