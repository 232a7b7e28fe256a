package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/metrics"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const MinPasswordLen = 6

// InvalidCredentials is the one message for unknown email and wrong
// password alike.
const InvalidCredentials = "invalid email or password"

type SessionStore interface {
	Save(ctx context.Context, userID, token string) error
	Matches(ctx context.Context, userID, token string) (bool, error)
	Delete(ctx context.Context, userID string) error
}

type AuthService struct {
	Repo     *repo.GormRepo
	Tokens   *tokens.Issuer
	Sessions SessionStore
	Events   events.Publisher
}

type AuthResult struct {
	User   *models.User
	Tokens *tokens.Pair
}

func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	email = models.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return nil, fmt.Errorf("email and name are required: %w", ErrValidation)
	}
	if len(password) < MinPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters long: %w", MinPasswordLen, ErrValidation)
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleCustomer,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("user already exists: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	res, err := s.startSession(ctx, &user)
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.Events, events.TopicUser, user.ID.String(), events.Event{
		"type":   "user_registered",
		"userID": user.ID.String(),
		"email":  user.Email,
	})
	return res, nil
}

func (s *AuthService) Signin(ctx context.Context, email, password string) (*AuthResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", ErrValidation)
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", InvalidCredentials, ErrUnauthorized)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%s: %w", InvalidCredentials, ErrUnauthorized)
	}

	res, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.Events, events.TopicUser, user.ID.String(), events.Event{
		"type":   "user_logged_in",
		"userID": user.ID.String(),
	})
	return res, nil
}

// startSession issues a token pair and records the refresh token,
// replacing any earlier session of the user.
func (s *AuthService) startSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	pair, err := s.Tokens.IssuePair(user.ID.String(), user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.Sessions.Save(ctx, user.ID.String(), pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Refresh mints a new access token for a refresh token that is still the
// user's recorded one. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	token, exp, err := s.refresh(ctx, refreshToken)
	switch {
	case err == nil:
		metrics.RecordTokenRefresh("success")
	case errors.Is(err, ErrUnauthorized):
		metrics.RecordTokenRefresh("unauthorized")
	default:
		metrics.RecordTokenRefresh("error")
	}
	return token, exp, err
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	if refreshToken == "" {
		return "", time.Time{}, fmt.Errorf("no refresh token provided: %w", ErrUnauthorized)
	}
	claims, err := s.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid refresh token: %v: %w", err, ErrUnauthorized)
	}

	ok, err := s.Sessions.Matches(ctx, claims.Subject, refreshToken)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("lookup refresh token: %w", err)
	}
	if !ok {
		return "", time.Time{}, fmt.Errorf("invalid refresh token: %w", ErrUnauthorized)
	}

	user, err := s.Authenticate(ctx, claims.Subject)
	if err != nil {
		return "", time.Time{}, err
	}

	access, exp, err := s.Tokens.IssueAccess(user.ID.String(), user.Role)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue access token: %w", err)
	}
	return access, exp, nil
}

// Logout revokes the session the refresh token belongs to. An empty token
// is a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		return fmt.Errorf("invalid refresh token: %v: %w", err, ErrUnauthorized)
	}
	if err := s.Sessions.Delete(ctx, claims.Subject); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	events.Emit(ctx, s.Events, events.TopicUser, claims.Subject, events.Event{
		"type":   "user_logged_out",
		"userID": claims.Subject,
	})
	return nil
}

// Authenticate loads the subject of a verified access token.
func (s *AuthService) Authenticate(ctx context.Context, subject string) (*models.User, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("bad subject: %w", ErrUnauthorized)
	}
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", ErrUnauthorized)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
