package dto

import "github.com/pkontaxis/thesisdesk/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// RegisterRequest represents a secretary-side user registration request
type RegisterRequest struct {
	Email      string      `json:"email" binding:"required,email"`
	Password   string      `json:"password" binding:"required,min=8"`
	FullName   string      `json:"fullName" binding:"required"`
	Role       models.Role `json:"role" binding:"required,oneof=student instructor secretary"`
	AcademicID *string     `json:"academicId,omitempty" binding:"omitempty,academic_id"`
	Phone      *string     `json:"phone,omitempty"`
	Address    *string     `json:"address,omitempty"`
}

// UpdateProfileRequest represents self-service profile update data.
// Only contact fields are mutable.
type UpdateProfileRequest struct {
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// UserResponse represents basic user information
type UserResponse struct {
	ID         int64   `json:"id"`
	Role       string  `json:"role"`
	AcademicID *string `json:"academicId,omitempty"`
	FullName   string  `json:"fullName"`
	Email      string  `json:"email"`
	Phone      *string `json:"phone,omitempty"`
	Address    *string `json:"address,omitempty"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// FromUser converts a user model to its response form
func FromUser(u *models.User) UserResponse {
	if u == nil {
		return UserResponse{}
	}
	return UserResponse{
		ID:         u.ID,
		Role:       string(u.Role),
		AcademicID: u.AcademicID,
		FullName:   u.FullName,
		Email:      u.Email,
		Phone:      u.Phone,
		Address:    u.Address,
	}
}
