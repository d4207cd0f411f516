package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/app/repositories"
	"github.com/pkontaxis/thesisdesk/internal/pkg/apperrors"
	"github.com/pkontaxis/thesisdesk/internal/pkg/auth"
	"github.com/pkontaxis/thesisdesk/internal/pkg/logger"
	"github.com/pkontaxis/thesisdesk/internal/pkg/validation"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Register(ctx context.Context, actor *models.User, req *dto.RegisterRequest) (*dto.UserResponse, error)
	GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
}

// authServiceImpl implements AuthService
type authServiceImpl struct {
	userRepo   repositories.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repositories.UserRepository, jwtService *auth.JWTService) AuthService {
	return &authServiceImpl{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Login authenticates a user and issues an access token
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresIn, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User logged in")

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(expiresIn),
		},
		User: dto.FromUser(user),
	}, nil
}

// Register creates a new user account. Only the secretary provisions
// accounts; students must carry an academic id.
func (s *authServiceImpl) Register(ctx context.Context, actor *models.User, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if actor == nil || actor.Role != models.RoleSecretary {
		return nil, apperrors.NewForbiddenError("only the secretary can create accounts")
	}
	if !req.Role.Valid() {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "unknown role")
	}
	if req.Role == models.RoleStudent {
		if req.AcademicID == nil || strings.TrimSpace(*req.AcademicID) == "" {
			return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "academic id is required for students")
		}
		if !validation.ValidAcademicID(strings.TrimSpace(*req.AcademicID)) {
			return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "academic id is not well-formed")
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Role:         req.Role,
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Phone:        req.Phone,
		Address:      req.Address,
	}
	if req.Role == models.RoleStudent {
		user.AcademicID = req.AcademicID
	}

	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	created, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error reading created user: %w", err)
	}

	logger.Info().Int64("userID", id).Str("role", string(created.Role)).Msg("User registered")

	resp := dto.FromUser(created)
	return &resp, nil
}

// GetProfile returns the user's own profile
func (s *authServiceImpl) GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := dto.FromUser(user)
	return &resp, nil
}

// UpdateProfile updates the user's mutable contact fields
func (s *authServiceImpl) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	if err := s.userRepo.UpdateProfile(ctx, userID, req.Phone, req.Address); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}
