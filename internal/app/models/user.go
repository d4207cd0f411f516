package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID           int64     `json:"id" db:"id" example:"1"`                                   // Unique identifier for the user
	Role         Role      `json:"role" db:"role" example:"student"`                         // User's role (student, instructor or secretary)
	AcademicID   *string   `json:"academicId,omitempty" db:"academic_id" example:"ics21045"` // Student registration number (students only)
	FullName     string    `json:"fullName" db:"full_name" example:"Maria Papadaki"`         // User's full name
	Email        string    `json:"email" db:"email" example:"maria@uni.example"`             // User's email address
	PasswordHash string    `json:"-" db:"password_hash"`                                     // Hashed password (excluded from JSON)
	Phone        *string   `json:"phone,omitempty" db:"phone" example:"+30 210 0000000"`     // Contact phone (nullable)
	Address      *string   `json:"address,omitempty" db:"address"`                           // Postal address (nullable)
	CreatedAt    time.Time `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"` // Timestamp when the user was created
}
