package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/harborfresh/storefront-backend/pkg/config"
	pkgerrors "github.com/harborfresh/storefront-backend/pkg/errors"
	"github.com/harborfresh/storefront-backend/pkg/kv"
	"github.com/harborfresh/storefront-backend/pkg/logger"
)

func testKeys() config.StorageConfig {
	return config.StorageConfig{TokenKey: "token", UserKey: "user"}
}

func newTestService(t *testing.T, client backendClient, storage kv.Store) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Client:  client,
		Storage: storage,
		Keys:    testKeys(),
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestLoginStoresSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := kv.NewMemory()
	client := &stubClient{signIn: &SignInResult{Token: "jwt-token", User: &User{Email: "an@example.com", FullName: "An"}}}
	svc := newTestService(t, client, mem)

	user, err := svc.Login(ctx, "an@example.com", "secret", true)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.FullName != "An" {
		t.Fatalf("unexpected user %+v", user)
	}

	token, err := mem.Get(ctx, "token")
	if err != nil || token != "jwt-token" {
		t.Fatalf("token not stored: %q %v", token, err)
	}
	if _, err := mem.Get(ctx, "user"); err != nil {
		t.Fatalf("user not stored: %v", err)
	}
}

func TestLoginWithoutTokenIsUnauthorized(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubClient{signIn: &SignInResult{Message: "ok"}}, kv.NewMemory())

	_, err := svc.Login(context.Background(), "an@example.com", "secret", false)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginDerivesProfileWhenBackendOmitsIt(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubClient{signIn: &SignInResult{Token: "tok"}}, kv.NewMemory())

	user, err := svc.Login(context.Background(), "linh@example.com", "secret", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Email != "linh@example.com" || user.FullName != "linh" {
		t.Fatalf("unexpected derived profile %+v", user)
	}
}

func TestLogoutClearsLocalSessionDespiteBackendFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := kv.NewMemory()
	if err := mem.Set(ctx, "token", "tok"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := mem.Set(ctx, "user", `{"email":"an@example.com"}`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	client := &stubClient{logoutErr: errors.New("backend down")}
	svc := newTestService(t, client, mem)

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout must succeed locally: %v", err)
	}
	if _, err := mem.Get(ctx, "token"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("token must be cleared, got %v", err)
	}
	if _, err := mem.Get(ctx, "user"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("user must be cleared, got %v", err)
	}
	if !client.logoutCalled {
		t.Fatal("backend logout should have been attempted")
	}
}

func TestSessionPresent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := kv.NewMemory()
	svc := newTestService(t, &stubClient{}, mem)

	if svc.SessionPresent(ctx) {
		t.Fatal("no token stored, session must be absent")
	}

	if err := mem.Set(ctx, "token", "opaque-session-token"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !svc.SessionPresent(ctx) {
		t.Fatal("opaque token must count as present")
	}

	expired := signedJWT(t, time.Now().Add(-time.Hour))
	if err := mem.Set(ctx, "token", expired); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if svc.SessionPresent(ctx) {
		t.Fatal("expired jwt must count as absent")
	}

	live := signedJWT(t, time.Now().Add(time.Hour))
	if err := mem.Set(ctx, "token", live); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !svc.SessionPresent(ctx) {
		t.Fatal("live jwt must count as present")
	}
}

func TestCurrentUserRefreshesCorruptProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := kv.NewMemory()
	if err := mem.Set(ctx, "token", "tok"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := mem.Set(ctx, "user", "{corrupt"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	client := &stubClient{me: &User{Email: "an@example.com"}}
	svc := newTestService(t, client, mem)

	user, err := svc.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if user.Email != "an@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestCurrentUserRejectedTokenClearsSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := kv.NewMemory()
	if err := mem.Set(ctx, "token", "stale-token"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	client := &stubClient{meErr: &BackendError{StatusCode: 401, Message: "token expired"}}
	svc := newTestService(t, client, mem)

	_, err := svc.CurrentUser(ctx)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := mem.Get(ctx, "token"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("rejected token must be cleared, got %v", err)
	}
}

func TestCurrentUserWithoutSession(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubClient{}, kv.NewMemory())
	_, err := svc.CurrentUser(context.Background())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func signedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return signed
}

type stubClient struct {
	signIn       *SignInResult
	signInErr    error
	registerErr  error
	me           *User
	meErr        error
	logoutErr    error
	logoutCalled bool
}

func (s *stubClient) SignIn(ctx context.Context, email, password string, rememberMe bool) (*SignInResult, error) {
	if s.signInErr != nil {
		return nil, s.signInErr
	}
	if s.signIn == nil {
		return &SignInResult{}, nil
	}
	return s.signIn, nil
}

func (s *stubClient) Register(ctx context.Context, input RegisterInput) error {
	return s.registerErr
}

func (s *stubClient) CurrentUser(ctx context.Context, token string) (*User, error) {
	if s.meErr != nil {
		return nil, s.meErr
	}
	if s.me == nil {
		return nil, errors.New("no user")
	}
	return s.me, nil
}

func (s *stubClient) Logout(ctx context.Context, token string) error {
	s.logoutCalled = true
	return s.logoutErr
}
