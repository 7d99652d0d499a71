package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	domainauth "rently/internal/domain/auth"
	domainuser "rently/internal/domain/user"
	"rently/internal/infra/storage/memory"
)

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type fakeTokens struct{ n int }

func (g *fakeTokens) NewToken() (string, error) {
	g.n++
	return fmt.Sprintf("token-%d", g.n), nil
}

func newTestService() *Service {
	return &Service{
		Users:     memory.NewUserRepository(),
		Sessions:  memory.NewSessionStore(),
		Passwords: fakeHasher{},
		Tokens:    &fakeTokens{},
	}
}

func TestRegisterOpensSession(t *testing.T) {
	svc := newTestService()
	res, err := svc.Register(context.Background(), RegisterParams{
		Email:    "Alice@Example.com",
		Name:     "Alice",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.Token == "" {
		t.Fatal("register must return a session token")
	}
	if res.User.Email != "alice@example.com" {
		t.Fatalf("email must be normalized, got %q", res.User.Email)
	}
	user, err := svc.ResolveToken(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	if user.ID != res.User.ID {
		t.Fatalf("token resolves to wrong user: %s vs %s", user.ID, res.User.ID)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newTestService()
	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "a@example.com",
		Name:     "A",
		Password: "short",
	})
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("want ErrPasswordTooShort, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterParams{Email: "a@example.com", Name: "A", Password: "supersecret"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterParams{Email: "A@EXAMPLE.COM", Name: "B", Password: "supersecret"})
	if !errors.Is(err, domainuser.ErrEmailAlreadyUsed) {
		t.Fatalf("want ErrEmailAlreadyUsed, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterParams{Email: "a@example.com", Name: "A", Password: "supersecret"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := svc.Login(ctx, LoginParams{Email: "a@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" {
		t.Fatal("login must return a session token")
	}

	if _, err := svc.Login(ctx, LoginParams{Email: "a@example.com", Password: "wrongpass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: want ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginParams{Email: "nobody@example.com", Password: "supersecret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: want ErrInvalidCredentials, got %v", err)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	res, err := svc.Register(ctx, RegisterParams{Email: "a@example.com", Name: "A", Password: "supersecret"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Logout(ctx, res.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.ResolveToken(ctx, res.Token); !errors.Is(err, domainauth.ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound after logout, got %v", err)
	}
}
