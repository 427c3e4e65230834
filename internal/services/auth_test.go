package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cinefeed/cinefeed-backend/internal/apperr"
	"github.com/cinefeed/cinefeed-backend/internal/repos"
	"github.com/cinefeed/cinefeed-backend/internal/requestdata"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

func newAuthFixture(t *testing.T) AuthService {
	t.Helper()
	log := newTestLogger(t)

	gormDB, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gormDB.AutoMigrate(&types.User{}, &types.UserToken{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return NewAuthService(
		gormDB,
		log,
		repos.NewUserRepo(gormDB, log),
		repos.NewUserTokenRepo(gormDB, log),
		"test-secret",
		time.Hour,
		24*time.Hour,
	)
}

func TestRegisterUser_NormalizesEmail(t *testing.T) {
	svc := newAuthFixture(t)
	user, err := svc.RegisterUser(context.Background(), "  Viewer@Example.COM ", "supersecret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "viewer@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Password == "supersecret" {
		t.Fatalf("password must be stored hashed")
	}
}

func TestRegisterUser_RejectsShortPassword(t *testing.T) {
	svc := newAuthFixture(t)
	_, err := svc.RegisterUser(context.Background(), "viewer@example.com", "short")
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRegisterUser_DuplicateEmailIsConflict(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()
	if _, err := svc.RegisterUser(ctx, "viewer@example.com", "supersecret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.RegisterUser(ctx, "VIEWER@example.com", "supersecret")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestLoginUser_IssuesTokensForValidCredentials(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()
	registered, err := svc.RegisterUser(ctx, "viewer@example.com", "supersecret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	accessToken, refreshToken, err := svc.LoginUser(ctx, "viewer@example.com", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if accessToken == "" || refreshToken == "" {
		t.Fatalf("expected both tokens issued")
	}

	authedCtx, err := svc.SetContextFromToken(ctx, accessToken)
	if err != nil {
		t.Fatalf("set context: %v", err)
	}
	rd := requestdata.GetRequestData(authedCtx)
	if rd == nil || rd.UserID != registered.ID {
		t.Fatalf("expected request data for the registered user, got %+v", rd)
	}
}

func TestLoginUser_WrongPasswordIsUnauthorized(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()
	if _, err := svc.RegisterUser(ctx, "viewer@example.com", "supersecret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := svc.LoginUser(ctx, "viewer@example.com", "wrongpassword")
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLoginUser_UnknownEmailIsUnauthorized(t *testing.T) {
	svc := newAuthFixture(t)
	_, _, err := svc.LoginUser(context.Background(), "nobody@example.com", "supersecret")
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRefreshUser_RotatesStoredToken(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()
	if _, err := svc.RegisterUser(ctx, "viewer@example.com", "supersecret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, refreshToken, err := svc.LoginUser(ctx, "viewer@example.com", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	accessToken2, refreshToken2, err := svc.RefreshUser(ctx, refreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if accessToken2 == "" || refreshToken2 == "" {
		t.Fatalf("expected rotated tokens")
	}
}

func TestRefreshUser_GarbageTokenIsUnauthorized(t *testing.T) {
	svc := newAuthFixture(t)
	_, _, err := svc.RefreshUser(context.Background(), "not-a-jwt")
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogoutUser_RequiresRequestData(t *testing.T) {
	svc := newAuthFixture(t)
	err := svc.LogoutUser(context.Background())
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without request data, got %v", err)
	}
}

func TestLogoutUser_DeletesStoredRefreshToken(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()
	registered, err := svc.RegisterUser(ctx, "viewer@example.com", "supersecret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, refreshToken, err := svc.LoginUser(ctx, "viewer@example.com", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	authedCtx := requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: registered.ID})
	if err := svc.LogoutUser(authedCtx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, _, err = svc.RefreshUser(ctx, refreshToken)
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected refresh rejected after logout, got %v", err)
	}
}

func TestSetContextFromToken_RejectsMalformedToken(t *testing.T) {
	svc := newAuthFixture(t)
	if _, err := svc.SetContextFromToken(context.Background(), "garbage.token.value"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for malformed token, got %v", err)
	}
}
