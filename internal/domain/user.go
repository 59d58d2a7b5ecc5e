package domain

import "time"

// User roles.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// DefaultProfilePicture is used when a user has no generated avatar.
const DefaultProfilePicture = "https://placehold.co/400x400/EFEFEF/AAAAAA?text=User"

type User struct {
	UserID         string    `json:"id" dynamodbav:"user_id"`
	Name           string    `json:"name" dynamodbav:"name"`
	Email          string    `json:"email" dynamodbav:"email"` // stored lowercased
	PasswordHash   string    `json:"-" dynamodbav:"password_hash"`
	Verified       bool      `json:"verified" dynamodbav:"verified"`
	Role           string    `json:"role" dynamodbav:"role"`
	Bio            string    `json:"bio" dynamodbav:"bio"`
	ProfilePicture string    `json:"profilePicture" dynamodbav:"profile_picture"`
	CreatedAt      time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type VerifyOTPRequest struct {
	UserID string `json:"userId" validate:"required"`
	OTP    string `json:"otp" validate:"required,len=6,numeric"`
}

type ResendOTPRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio" validate:"omitempty,max=500"`
}
