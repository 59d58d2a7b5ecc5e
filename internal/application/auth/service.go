package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/skillmarket/api/internal/domain"
	"github.com/skillmarket/api/internal/pkg/id"
	"github.com/skillmarket/api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

// RegisterResult reports the outcome of a registration attempt. Resent is true
// when the email belonged to an existing unverified user and a fresh OTP was
// issued instead of creating a new account.
type RegisterResult struct {
	UserID string
	Resent bool
}

// LoginResult is the user summary plus signed bearer token returned on login.
type LoginResult struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Token  string `json:"token"`
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*RegisterResult, error)
	VerifyOTP(ctx context.Context, userID, code string) error
	ResendOTP(ctx context.Context, userID string) error
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type otpStore interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Get(ctx context.Context, userID string) (*domain.OTPRecord, error)
	Delete(ctx context.Context, userID string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type jwtSigner interface {
	Sign(userID, role string) (string, error)
}

type service struct {
	userRepo    userStore
	otpRepo     otpStore
	mailer      mailer
	jwtProvider jwtSigner
	otpTTL      time.Duration
}

type ServiceDeps struct {
	UserRepo    userStore
	OTPRepo     otpStore
	Mailer      mailer
	JWTProvider jwtSigner
	OTPTTL      time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		userRepo:    deps.UserRepo,
		otpRepo:     deps.OTPRepo,
		mailer:      deps.Mailer,
		jwtProvider: deps.JWTProvider,
		otpTTL:      deps.OTPTTL,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*RegisterResult, error) {
	email := strings.ToLower(req.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Verified {
			return nil, fmt.Errorf("user with this email already exists and is verified: %w", domain.ErrConflict)
		}
		// Unverified account — reissue instead of erroring so the user can
		// finish the flow they started.
		if err := s.issueOTP(ctx, existing, "Skillmarket - New OTP Request"); err != nil {
			return nil, err
		}
		return &RegisterResult{UserID: existing.UserID, Resent: true}, nil
	case !errors.Is(err, domain.ErrNotFound):
		// A storage failure is not "email free" — creating the account here
		// could mint a duplicate once the store recovers.
		return nil, fmt.Errorf("look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:         id.New(),
		Name:           req.Name,
		Email:          email,
		PasswordHash:   string(hash),
		Verified:       false,
		Role:           domain.RoleStudent,
		ProfilePicture: avatarURL(req.Name),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.userRepo.Put(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost the write race to a concurrent registration for this email.
			return nil, fmt.Errorf("user with this email already exists: %w", domain.ErrConflict)
		}
		return nil, err
	}
	if err := s.issueOTP(ctx, u, "Skillmarket - Verify Your Email"); err != nil {
		return nil, err
	}
	return &RegisterResult{UserID: u.UserID}, nil
}

func (s *service) VerifyOTP(ctx context.Context, userID, code string) error {
	rec, err := s.otpRepo.Get(ctx, userID)
	if err != nil || rec.Code != code {
		return fmt.Errorf("invalid or expired OTP: %w", domain.ErrBadRequest)
	}
	// The storage TTL lags actual removal, so check wall-clock age too and
	// treat an expired record as absent.
	if time.Now().Unix() > rec.ExpiresAt {
		if err := s.otpRepo.Delete(ctx, userID); err != nil {
			slog.Warn("failed to delete expired otp record", "user_id", userID, "err", err)
		}
		return fmt.Errorf("invalid or expired OTP: %w", domain.ErrBadRequest)
	}
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrBadRequest)
	}
	if err := s.userRepo.Update(ctx, u.UserID, map[string]interface{}{"verified": true}); err != nil {
		return err
	}
	if err := s.otpRepo.Delete(ctx, userID); err != nil {
		slog.Warn("failed to delete otp record after verification", "user_id", userID, "err", err)
	}
	return nil
}

func (s *service) ResendOTP(ctx context.Context, userID string) error {
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrBadRequest)
	}
	if u.Verified {
		return fmt.Errorf("this account is already verified: %w", domain.ErrBadRequest)
	}
	return s.issueOTP(ctx, u, "Skillmarket - New Verification Code")
}

func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.userRepo.GetByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, domain.ErrNotFound) {
		// Same message as a password mismatch so responses don't reveal
		// which emails are registered.
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("look up email: %w", err)
	}
	if !u.Verified {
		return nil, fmt.Errorf("please verify your email before logging in: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	token, err := s.jwtProvider.Sign(u.UserID, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		UserID: u.UserID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Token:  token,
	}, nil
}

// issueOTP generates a fresh 6-digit code, upserts it (overwriting any
// outstanding code for the user) and emails it. The code never leaves the
// server except through the email.
func (s *service) issueOTP(ctx context.Context, u *domain.User, subject string) error {
	code, err := otp.NewCode()
	if err != nil {
		return err
	}
	now := time.Now()
	rec := &domain.OTPRecord{
		UserID:    u.UserID,
		Code:      code,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(s.otpTTL).Unix(),
	}
	if err := s.otpRepo.Put(ctx, rec); err != nil {
		return err
	}
	body := fmt.Sprintf(
		"Your One-Time Password (OTP) for Skillmarket is: %s. It expires in %d seconds.",
		code, int(s.otpTTL.Seconds()),
	)
	return s.mailer.SendEmail(u.Email, subject, body)
}

func avatarURL(name string) string {
	return "https://api.dicebear.com/7.x/initials/svg?seed=" + url.QueryEscape(name)
}
