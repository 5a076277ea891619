// Package account handles registration, login and token checks.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"tunex/core/access"
	"tunex/core/apperr"
	"tunex/core/auth"
	"tunex/logger"
	"tunex/model"
	"tunex/repository"
)

// Denylist records revoked token ids. A nil Denylist disables logout
// revocation; tokens then stay valid until they expire.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Session is the result of a successful login.
type Session struct {
	Token string      `json:"token"`
	Role  string      `json:"role"`
	User  *model.User `json:"user"`
}

// Service 账号服务
type Service struct {
	store    *repository.Store
	tokens   *auth.TokenManager
	denylist Denylist
}

func NewService(store *repository.Store, tokens *auth.TokenManager, denylist Denylist) *Service {
	return &Service{store: store, tokens: tokens, denylist: denylist}
}

// Register creates an account holding role, which must be USER or CREATOR.
func (s *Service) Register(ctx context.Context, username, email, password, role string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, apperr.Validation("username, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperr.Validation("invalid email %q", email)
	}
	r, ok := access.ParseRole(role)
	if !ok || r == access.RoleAdmin {
		return nil, apperr.Validation("role must be USER or CREATOR")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.store.Users.Create(ctx, user, []string{string(r)}); err != nil {
		return nil, err
	}

	logger.Info("[Register] account created",
		logger.Int64("userId", user.ID),
		logger.String("role", string(r)))
	return user, nil
}

// Login checks the credentials and issues a token scoped to the chosen role.
// Wrong credentials are ErrUnauthorized; a role the account does not hold
// is ErrForbidden.
func (s *Service) Login(ctx context.Context, email, password, role string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.Users.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		logger.Warn("[Login] unknown email", logger.String("email", email))
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		logger.Warn("[Login] password mismatch", logger.Int64("userId", user.ID))
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	if auth.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user.ID, password)
	}

	held := access.NewIdentity(user.ID, user.Username, user.RoleNames())
	r, ok := access.ParseRole(role)
	if !ok || !held.Has(r) {
		return nil, apperr.Forbidden("Unauthorized role")
	}

	token, err := s.tokens.GenerateToken(access.Identity{UserID: user.ID, Username: user.Username, Roles: []access.Role{r}})
	if err != nil {
		return nil, err
	}
	logger.Info("[Login] success", logger.Int64("userId", user.ID), logger.String("role", string(r)))
	return &Session{Token: token, Role: string(r), User: user}, nil
}

// Authenticate turns a bearer token into the caller identity.
func (s *Service) Authenticate(ctx context.Context, token string) (access.Identity, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return access.Anonymous, apperr.Unauthorized("%v", err)
	}
	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return access.Anonymous, err
		}
		if revoked {
			return access.Anonymous, apperr.Unauthorized("token has been revoked")
		}
	}
	return claims.Identity(), nil
}

// Logout revokes token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return apperr.Unauthorized("%v", err)
	}
	if s.denylist == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

// rehash stores password again under the current work factor. Failure only
// delays the upgrade to the next login.
func (s *Service) rehash(ctx context.Context, userID int64, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = s.store.Users.UpdatePassword(ctx, userID, hash)
	}
	if err != nil {
		logger.Warn("[Login] password rehash failed", logger.Int64("userId", userID), logger.ErrorField(err))
	}
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id access.Identity, current, next string) error {
	if !id.Authenticated() {
		return apperr.Unauthorized("login required")
	}
	if next == "" {
		return apperr.Validation("new password is required")
	}
	user, err := s.store.Users.GetByID(ctx, id.UserID)
	if err != nil {
		return err
	}
	if !auth.CheckPasswordHash(current, user.PasswordHash) {
		return apperr.Unauthorized("current password is incorrect")
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.Users.UpdatePassword(ctx, user.ID, hash)
}
