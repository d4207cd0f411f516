package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	pkgAuth "github.com/pkontaxis/thesisdesk/internal/pkg/auth"
)

func setupAuth(t *testing.T) (AuthService, *mockUserRepo) {
	t.Helper()
	users := newMockUserRepo()
	jwtService := pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "thesisdesk.test",
	})
	return NewAuthService(users, jwtService), users
}

// registrar is the secretary actor account creation runs as.
var registrar = &models.User{ID: 999, Role: models.RoleSecretary, FullName: "Eleni Georgiou"}

func registerStudent(t *testing.T, svc AuthService, email, academicID string) *dto.UserResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), registrar, &dto.RegisterRequest{
		Email:      email,
		Password:   "Student123!",
		FullName:   "Maria Papadaki",
		Role:       models.RoleStudent,
		AcademicID: &academicID,
	})
	if err != nil {
		t.Fatalf("registering student: %v", err)
	}
	return resp
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("student with a well-formed academic id", func(t *testing.T) {
		svc, _ := setupAuth(t)
		resp := registerStudent(t, svc, "Maria@Uni.Example", "ics21045")

		if resp.Email != "maria@uni.example" {
			t.Errorf("email = %q, want lowercased", resp.Email)
		}
		if resp.AcademicID == nil || *resp.AcademicID != "ics21045" {
			t.Errorf("academicId = %v, want ics21045", resp.AcademicID)
		}
	})

	t.Run("student without an academic id", func(t *testing.T) {
		svc, _ := setupAuth(t)
		_, err := svc.Register(ctx, registrar, &dto.RegisterRequest{
			Email:    "maria@uni.example",
			Password: "Student123!",
			FullName: "Maria Papadaki",
			Role:     models.RoleStudent,
		})
		if !errors.Is(err, apperrors.ErrValidationFailed) {
			t.Errorf("Register error = %v, want ErrValidationFailed", err)
		}
	})

	t.Run("malformed academic id", func(t *testing.T) {
		svc, _ := setupAuth(t)
		bad := "21045"
		_, err := svc.Register(ctx, registrar, &dto.RegisterRequest{
			Email:      "maria@uni.example",
			Password:   "Student123!",
			FullName:   "Maria Papadaki",
			Role:       models.RoleStudent,
			AcademicID: &bad,
		})
		if !errors.Is(err, apperrors.ErrValidationFailed) {
			t.Errorf("Register error = %v, want ErrValidationFailed", err)
		}
	})

	t.Run("instructor drops the academic id", func(t *testing.T) {
		svc, users := setupAuth(t)
		stray := "ics21045"
		resp, err := svc.Register(ctx, registrar, &dto.RegisterRequest{
			Email:      "nikos@uni.example",
			Password:   "Instructor1!",
			FullName:   "Nikos Ioannou",
			Role:       models.RoleInstructor,
			AcademicID: &stray,
		})
		if err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		stored, _ := users.GetByID(ctx, resp.ID)
		if stored.AcademicID != nil {
			t.Error("instructor account must not carry an academic id")
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _ := setupAuth(t)
		registerStudent(t, svc, "maria@uni.example", "ics21045")

		other := "ics21046"
		_, err := svc.Register(ctx, registrar, &dto.RegisterRequest{
			Email:      "maria@uni.example",
			Password:   "Student123!",
			FullName:   "Other Maria",
			Role:       models.RoleStudent,
			AcademicID: &other,
		})
		if !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			t.Errorf("Register error = %v, want ErrEmailAlreadyExists", err)
		}
	})

	t.Run("instructor actor is denied", func(t *testing.T) {
		svc, _ := setupAuth(t)
		academicID := "ics21045"
		instructor := &models.User{ID: 7, Role: models.RoleInstructor}
		_, err := svc.Register(ctx, instructor, &dto.RegisterRequest{
			Email:      "maria@uni.example",
			Password:   "Student123!",
			FullName:   "Maria Papadaki",
			Role:       models.RoleStudent,
			AcademicID: &academicID,
		})
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("Register error = %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("anonymous caller cannot mint a secretary account", func(t *testing.T) {
		svc, users := setupAuth(t)
		_, err := svc.Register(ctx, nil, &dto.RegisterRequest{
			Email:    "intruder@uni.example",
			Password: "Password123!",
			FullName: "Intruder",
			Role:     models.RoleSecretary,
		})
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("Register error = %v, want ErrPermissionDenied", err)
		}
		if _, err := users.GetByEmail(ctx, "intruder@uni.example"); !errors.Is(err, apperrors.ErrUserNotFound) {
			t.Errorf("account was created: GetByEmail error = %v", err)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		svc, _ := setupAuth(t)
		_, err := svc.Register(ctx, registrar, &dto.RegisterRequest{
			Email:    "x@uni.example",
			Password: "Password123!",
			FullName: "X",
			Role:     "admin",
		})
		if !errors.Is(err, apperrors.ErrValidationFailed) {
			t.Errorf("Register error = %v, want ErrValidationFailed", err)
		}
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials issue a bearer token", func(t *testing.T) {
		svc, _ := setupAuth(t)
		registerStudent(t, svc, "maria@uni.example", "ics21045")

		resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "  Maria@uni.example ", Password: "Student123!"})
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if resp.Token.AccessToken == "" {
			t.Error("access token is empty")
		}
		if resp.Token.TokenType != "Bearer" {
			t.Errorf("token type = %q, want Bearer", resp.Token.TokenType)
		}
		if resp.User.Email != "maria@uni.example" {
			t.Errorf("user email = %q", resp.User.Email)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _ := setupAuth(t)
		registerStudent(t, svc, "maria@uni.example", "ics21045")

		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "maria@uni.example", Password: "wrong"})
		if !errors.Is(err, apperrors.ErrInvalidCredentials) {
			t.Errorf("Login error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown account looks like bad credentials", func(t *testing.T) {
		svc, _ := setupAuth(t)

		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "ghost@uni.example", Password: "whatever"})
		if !errors.Is(err, apperrors.ErrInvalidCredentials) {
			t.Errorf("Login error = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestAuthService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAuth(t)
	created := registerStudent(t, svc, "maria@uni.example", "ics21045")

	phone := "+30 210 1234567"
	resp, err := svc.UpdateProfile(ctx, created.ID, &dto.UpdateProfileRequest{Phone: &phone})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if resp.Phone == nil || *resp.Phone != phone {
		t.Errorf("phone = %v, want %q", resp.Phone, phone)
	}
}
