package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/harborfresh/storefront-backend/pkg/config"
	pkgerrors "github.com/harborfresh/storefront-backend/pkg/errors"
	"github.com/harborfresh/storefront-backend/pkg/kv"
	"github.com/harborfresh/storefront-backend/pkg/logger"
)

type backendClient interface {
	SignIn(ctx context.Context, email, password string, rememberMe bool) (*SignInResult, error)
	Register(ctx context.Context, input RegisterInput) error
	CurrentUser(ctx context.Context, token string) (*User, error)
	Logout(ctx context.Context, token string) error
}

// Service owns the local session state: the token and user profile stored in
// the key-value store. The cart lifecycle watcher observes the token key this
// service writes; it never calls Logout itself.
type Service interface {
	Login(ctx context.Context, email, password string, rememberMe bool) (*User, error)
	Register(ctx context.Context, input RegisterInput) error
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*User, error)
	SessionPresent(ctx context.Context) bool
}

type service struct {
	client  backendClient
	storage kv.Store
	keys    config.StorageConfig
	logg    *logger.Logger
}

// ServiceParams wires the auth service dependencies.
type ServiceParams struct {
	Client  backendClient
	Storage kv.Store
	Keys    config.StorageConfig
	Logger  *logger.Logger
}

// NewService builds the auth service.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("auth client required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("session storage required")
	}
	if params.Keys.TokenKey == "" || params.Keys.UserKey == "" {
		return nil, fmt.Errorf("session storage keys required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		client:  params.Client,
		storage: params.Storage,
		keys:    params.Keys,
		logg:    params.Logger,
	}, nil
}

// Login exchanges credentials for a session and stores it locally.
func (s *service) Login(ctx context.Context, email, password string, rememberMe bool) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	result, err := s.client.SignIn(ctx, email, password, rememberMe)
	if err != nil {
		return nil, mapBackendError(err, "sign in")
	}
	if result.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign-in succeeded but no token was returned")
	}

	user := result.User
	if user == nil {
		// The backend sometimes omits the profile; derive a minimal one.
		user = &User{Email: email, FullName: strings.SplitN(email, "@", 2)[0]}
	}

	if err := s.storage.Set(ctx, s.keys.TokenKey, result.Token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session token")
	}
	if raw, err := json.Marshal(user); err == nil {
		if err := s.storage.Set(ctx, s.keys.UserKey, string(raw)); err != nil {
			s.logg.Error(ctx, "auth.store_user_failed", err)
		}
	}

	return user, nil
}

// Register creates a customer account; no session is established.
func (s *service) Register(ctx context.Context, input RegisterInput) error {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}
	if err := s.client.Register(ctx, input); err != nil {
		return mapBackendError(err, "register")
	}
	return nil
}

// Logout revokes the remote session best-effort and always clears the local
// token and user, so the cart watcher observes the logout either way.
func (s *service) Logout(ctx context.Context) error {
	token, err := s.storage.Get(ctx, s.keys.TokenKey)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.logout.token_read_failed")
	}

	if token != "" {
		if err := s.client.Logout(ctx, token); err != nil {
			s.logg.Error(ctx, "auth.logout.backend_failed", err)
		}
	}

	if err := s.storage.Del(ctx, s.keys.TokenKey, s.keys.UserKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session state")
	}
	return nil
}

// CurrentUser returns the locally stored profile, refreshing it from the
// backend when the stored copy is missing or unreadable.
func (s *service) CurrentUser(ctx context.Context) (*User, error) {
	token, err := s.storage.Get(ctx, s.keys.TokenKey)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
	}

	if raw, err := s.storage.Get(ctx, s.keys.UserKey); err == nil {
		var user User
		if err := json.Unmarshal([]byte(raw), &user); err == nil {
			return &user, nil
		}
		s.logg.Warn(ctx, "auth.current_user.corrupt_profile")
	}

	user, err := s.client.CurrentUser(ctx, token)
	if err != nil {
		mapped := mapBackendError(err, "fetch current user")
		// A rejected token is dead; drop the local session so the cart
		// watcher observes the logout.
		if typed := pkgerrors.As(mapped); typed != nil && typed.Code() == pkgerrors.CodeUnauthorized {
			if delErr := s.storage.Del(ctx, s.keys.TokenKey, s.keys.UserKey); delErr != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", delErr.Error()), "auth.session_clear_failed")
			}
		}
		return nil, mapped
	}
	if raw, err := json.Marshal(user); err == nil {
		if err := s.storage.Set(ctx, s.keys.UserKey, string(raw)); err != nil {
			s.logg.Error(ctx, "auth.store_user_failed", err)
		}
	}
	return user, nil
}

// SessionPresent reports whether a usable session token is stored. An expired
// JWT counts as absent; an opaque token is trusted as present.
func (s *service) SessionPresent(ctx context.Context) bool {
	token, err := s.storage.Get(ctx, s.keys.TokenKey)
	if err != nil || token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(time.Now())
}

func mapBackendError(err error, operation string) error {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		switch {
		case backendErr.StatusCode == 401 || backendErr.StatusCode == 403:
			return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, operation+" rejected")
		case backendErr.StatusCode >= 400 && backendErr.StatusCode < 500:
			msg := backendErr.Message
			if msg == "" {
				msg = operation + " failed"
			}
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg)
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, operation+" unavailable")
}
