package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/coursetrack/internal/domain"
	"github.com/msomdec/coursetrack/internal/repository/sqlite"
	"github.com/msomdec/coursetrack/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests"

func newTestAuthService(t *testing.T) (*service.AuthService, *sqlite.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Cost 4 keeps bcrypt fast.
	return service.NewAuthService(db.Users(), testJWTSecret, 4), db
}

// signedToken signs claims with the given secret and method, for feeding
// hand-built tokens to ValidateToken.
func signedToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthService_Register_Roles(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		email string
		role  domain.Role
		want  domain.Role
	}{
		{"default@example.com", "", domain.RoleStudent},
		{"student@example.com", domain.RoleStudent, domain.RoleStudent},
		{"instructor@example.com", domain.RoleInstructor, domain.RoleInstructor},
		{"admin@example.com", domain.RoleAdmin, domain.RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			user, err := auth.Register(ctx, tt.email, "User", "password123", "password123", tt.role)
			if err != nil {
				t.Fatalf("Register: %v", err)
			}
			if user.ID == 0 || user.Role != tt.want {
				t.Fatalf("expected a stored %s, got %+v", tt.want, user)
			}
			stored, err := auth.GetUserByID(ctx, user.ID)
			if err != nil {
				t.Fatalf("GetUserByID: %v", err)
			}
			if stored.Role != tt.want {
				t.Fatalf("stored role = %s, want %s", stored.Role, tt.want)
			}
		})
	}
}

func TestAuthService_Register_Invalid(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		role     domain.Role
		password string
		confirm  string
	}{
		{"unknown role", domain.Role("OWNER"), "password123", "password123"},
		{"lowercase role", domain.Role("instructor"), "password123", "password123"},
		{"password mismatch", domain.RoleStudent, "password123", "password456"},
		{"short password", domain.RoleStudent, "short", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(ctx, "bad@example.com", "Bad", tt.password, tt.confirm, tt.role)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "dup@example.com", "User 1", "password123", "password123", domain.RoleInstructor); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := auth.Register(ctx, "dup@example.com", "User 2", "password456", "password456", domain.RoleStudent)
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthService_Login_Claims(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	issuedAt := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	auth.SetClock(func() time.Time { return issuedAt })

	user, err := auth.Register(ctx, "inst@example.com", "Ada", "password123", "password123", domain.RoleInstructor)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := auth.Login(ctx, "inst@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims := &service.AccessClaims{}
	_, err = jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return []byte(testJWTSecret), nil },
		jwt.WithTimeFunc(func() time.Time { return issuedAt }),
	)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != strconv.FormatInt(user.ID, 10) {
		t.Errorf("sub = %q, want %d", claims.Subject, user.ID)
	}
	if claims.Role != domain.RoleInstructor || claims.Email != "inst@example.com" || claims.DisplayName != "Ada" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(issuedAt.Add(24 * time.Hour)) {
		t.Errorf("exp = %v, want 24h after %v", claims.ExpiresAt.Time, issuedAt)
	}

	userID, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("expected user ID %d, got %d", user.ID, userID)
	}
}

func TestAuthService_Login_Unauthorized(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "login@example.com", "User", "password123", "password123", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	for _, tc := range []struct{ email, password string }{
		{"login@example.com", "wrongpassword"},
		{"nobody@example.com", "password123"},
	} {
		if _, err := auth.Login(ctx, tc.email, tc.password); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("Login(%s): expected ErrUnauthorized, got %v", tc.email, err)
		}
	}
}

func TestAuthService_ValidateToken_Rejects(t *testing.T) {
	auth, _ := newTestAuthService(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	auth.SetClock(func() time.Time { return now })

	claims := func(sub string, exp time.Time) service.AccessClaims {
		return service.AccessClaims{
			Role: domain.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   sub,
				IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
				ExpiresAt: jwt.NewNumericDate(exp),
			},
		}
	}
	valid := signedToken(t, jwt.SigningMethodHS256, []byte(testJWTSecret), claims("1", now.Add(time.Hour)))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-valid-jwt"},
		{"tampered signature", valid[:len(valid)-5] + "XXXXX"},
		{"other secret", signedToken(t, jwt.SigningMethodHS256, []byte("different-secret"), claims("1", now.Add(time.Hour)))},
		{"other hmac method", signedToken(t, jwt.SigningMethodHS512, []byte(testJWTSecret), claims("1", now.Add(time.Hour)))},
		{"expired", signedToken(t, jwt.SigningMethodHS256, []byte(testJWTSecret), claims("1", now.Add(-time.Second)))},
		{"no expiry", signedToken(t, jwt.SigningMethodHS256, []byte(testJWTSecret), service.AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
		})},
		{"non-numeric subject", signedToken(t, jwt.SigningMethodHS256, []byte(testJWTSecret), claims("admin", now.Add(time.Hour)))},
		{"zero subject", signedToken(t, jwt.SigningMethodHS256, []byte(testJWTSecret), claims("0", now.Add(time.Hour)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.ValidateToken(tt.token); !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}

	if id, err := auth.ValidateToken(valid); err != nil || id != 1 {
		t.Fatalf("valid token: id=%d err=%v", id, err)
	}
}
