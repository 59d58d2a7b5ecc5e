package http

import (
	"context"
	"io"

	"github.com/skillmarket/api/internal/domain"
	jwtinfra "github.com/skillmarket/api/internal/infrastructure/jwt"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// OTPRepository is the minimal interface the router requires from the OTP store.
type OTPRepository interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Get(ctx context.Context, userID string) (*domain.OTPRecord, error)
	Delete(ctx context.Context, userID string) error
}

// CourseRepository is the minimal interface the router requires from a course store.
type CourseRepository interface {
	Put(ctx context.Context, c *domain.Course) error
	Get(ctx context.Context, courseID string) (*domain.Course, error)
	Scan(ctx context.Context) ([]domain.Course, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]domain.Course, error)
	ListByStudent(ctx context.Context, userID string) ([]domain.Course, error)
	AddStudent(ctx context.Context, courseID, userID string) error
	Update(ctx context.Context, courseID string, updates map[string]interface{}) error
	Delete(ctx context.Context, courseID string) error
}

// ReviewRepository is the minimal interface the router requires from a review store.
type ReviewRepository interface {
	Put(ctx context.Context, rev *domain.Review) error
	ListByCourse(ctx context.Context, courseID string) ([]domain.Review, error)
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, objectURL string) error
}

// Mailer sends transactional email.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// TokenProvider signs and verifies bearer tokens.
type TokenProvider interface {
	Sign(userID, role string) (string, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    UserRepository
	OTPRepo     OTPRepository
	CourseRepo  CourseRepository
	ReviewRepo  ReviewRepository
	ObjectStore ObjectStore
	Mailer      Mailer
	JWTProvider TokenProvider
}
