package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/internal/repository"
	"github.com/jwalitptl/frontdesk-api/internal/session"
	"github.com/jwalitptl/frontdesk-api/pkg/auth"
	"github.com/jwalitptl/frontdesk-api/pkg/errors"
	"github.com/jwalitptl/frontdesk-api/pkg/logger"
	"github.com/jwalitptl/frontdesk-api/pkg/security"
)

var (
	ErrInvalidCredentials = stderrors.New("invalid credentials")
	ErrTokenRevoked       = stderrors.New("token revoked")
)

type Service struct {
	users   repository.UserRepository
	jwtSvc  auth.JWTService
	hasher  security.PasswordHasher
	revoked *cache.Cache
	logger  *logger.Logger
	now     func() time.Time
}

func NewService(users repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher, logger *logger.Logger) *Service {
	return &Service{
		users:   users,
		jwtSvc:  jwtSvc,
		hasher:  hasher,
		revoked: cache.New(time.Hour, 10*time.Minute),
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, errors.Remote("failed to load user", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, errors.Unauthorized(ErrInvalidCredentials)
	}

	token, claims, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Error(err, "Failed to update last login", "user_id", user.ID.String())
	}

	return &model.LoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Name:      user.Name,
		Admin:     user.Admin,
	}, nil
}

// Authenticate resolves a bearer token into the acting user.
func (s *Service) Authenticate(_ context.Context, token string) (session.User, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return session.User{}, errors.Unauthorized(err)
	}
	if _, revoked := s.revoked.Get(claims.ID); revoked {
		return session.User{}, errors.Unauthorized(ErrTokenRevoked)
	}
	id, err := claims.UserID()
	if err != nil {
		return session.User{}, errors.Unauthorized(err)
	}
	u := session.User{ID: id, Name: claims.Name, Admin: claims.Admin, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		u.ExpiresAt = claims.ExpiresAt.Time
	}
	return u, nil
}

// Logout revokes the session's token until it would have expired anyway.
func (s *Service) Logout(_ context.Context, u session.User) error {
	if u.TokenID == "" {
		return errors.Unauthorized(fmt.Errorf("session has no token id"))
	}
	ttl := u.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	s.revoked.Set(u.TokenID, true, ttl)
	return nil
}

// CreateUser registers an operator with a hashed password.
func (s *Service) CreateUser(ctx context.Context, username, name, password string, admin bool) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.Validation("username is required", nil)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, errors.Validation("invalid password", err)
	}

	user := &model.User{
		Username:     username,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Admin:        admin,
	}
	if user.Name == "" {
		user.Name = username
	}
	if err := s.users.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrConflict) {
			return nil, errors.BadRequest("username already taken", err)
		}
		return nil, errors.Remote("failed to create user", err)
	}
	return user, nil
}
