package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/skillmarket/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockOTPStore struct{ mock.Mock }

func (m *mockOTPStore) Put(ctx context.Context, rec *domain.OTPRecord) error {
	return m.Called(ctx, rec).Error(0)
}
func (m *mockOTPStore) Get(ctx context.Context, userID string) (*domain.OTPRecord, error) {
	args := m.Called(ctx, userID)
	if rec, _ := args.Get(0).(*domain.OTPRecord); rec != nil {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOTPStore) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

// --- builder ---

func newService(us *mockUserStore, os *mockOTPStore, ml *mockMailer, jwt *mockJWTSigner) Service {
	return NewService(ServiceDeps{
		UserRepo:    us,
		OTPRepo:     os,
		Mailer:      ml,
		JWTProvider: jwt,
		OTPTTL:      time.Minute,
	})
}

// --- Register ---

func TestRegister_VerifiedEmail_Conflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1", Verified: true}, nil)

	svc := newService(us, nil, nil, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Name: "Ann", Email: "a@x.com", Password: "pw123456",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRegister_UnverifiedEmail_ReissuesOTP(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOTPStore{}
	ml := &mockMailer{}

	existing := &domain.User{UserID: "u1", Email: "a@x.com", Verified: false}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(existing, nil)
	os.On("Put", mock.Anything, mock.AnythingOfType("*domain.OTPRecord")).Return(nil)
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(us, os, ml, nil)
	res, err := svc.Register(context.Background(), domain.RegisterRequest{
		Name: "Ann", Email: "a@x.com", Password: "pw123456",
	})

	require.NoError(t, err)
	assert.True(t, res.Resent)
	assert.Equal(t, "u1", res.UserID)
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	os.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestRegister_NewUser_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOTPStore{}
	ml := &mockMailer{}

	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)

	var created *domain.User
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*domain.User)
	}).Return(nil)

	var issued *domain.OTPRecord
	os.On("Put", mock.Anything, mock.AnythingOfType("*domain.OTPRecord")).Run(func(args mock.Arguments) {
		issued = args.Get(1).(*domain.OTPRecord)
	}).Return(nil)
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(us, os, ml, nil)
	res, err := svc.Register(context.Background(), domain.RegisterRequest{
		Name: "Ann", Email: "A@X.com", Password: "pw123456",
	})

	require.NoError(t, err)
	assert.False(t, res.Resent)

	require.NotNil(t, created)
	assert.Equal(t, res.UserID, created.UserID)
	assert.Equal(t, "a@x.com", created.Email, "email must be stored lowercased")
	assert.False(t, created.Verified)
	assert.Equal(t, domain.RoleStudent, created.Role)
	assert.Contains(t, created.ProfilePicture, "dicebear.com")
	assert.NotEqual(t, "pw123456", created.PasswordHash, "password must be hashed")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("pw123456")))

	require.NotNil(t, issued)
	assert.Equal(t, created.UserID, issued.UserID)
	n, convErr := strconv.Atoi(issued.Code)
	require.NoError(t, convErr)
	assert.GreaterOrEqual(t, n, 100000)
	assert.LessOrEqual(t, n, 999999)
	assert.Equal(t, issued.CreatedAt+60, issued.ExpiresAt)
}

func TestRegister_OTPCode_NeverInResult(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOTPStore{}
	ml := &mockMailer{}

	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)

	var code string
	os.On("Put", mock.Anything, mock.AnythingOfType("*domain.OTPRecord")).Run(func(args mock.Arguments) {
		code = args.Get(1).(*domain.OTPRecord).Code
	}).Return(nil)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newService(us, os, ml, nil)
	res, err := svc.Register(context.Background(), domain.RegisterRequest{
		Name: "Ann", Email: "a@x.com", Password: "pw123456",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, code)
	assert.NotContains(t, res.UserID, code)
}

func TestRegister_LookupFailure_DoesNotCreateUser(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOTPStore{}
	ml := &mockMailer{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("dynamo: service unavailable"))

	svc := newService(us, os, ml, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Name: "Ann", Email: "a@x.com", Password: "pw123456",
	})

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrConflict))
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	os.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	ml.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_LosesWriteRace_Conflict(t *testing.T) {
	// Both racers pass the lookup; the loser's transactional put must come
	// back as a conflict, not a fresh account.
	us := &mockUserStore{}
	os := &mockOTPStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(
		fmt.Errorf("user already exists: %w", domain.ErrConflict))

	svc := newService(us, os, nil, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Name: "Ann", Email: "a@x.com", Password: "pw123456",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	os.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- VerifyOTP ---

func TestVerifyOTP_WrongCode(t *testing.T) {
	os := &mockOTPStore{}
	os.On("Get", mock.Anything, "u1").Return(&domain.OTPRecord{
		UserID: "u1", Code: "111111",
		ExpiresAt: time.Now().Add(time.Minute).Unix(),
	}, nil)

	svc := newService(nil, os, nil, nil)
	err := svc.VerifyOTP(context.Background(), "u1", "222222")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestVerifyOTP_RecordAbsent(t *testing.T) {
	os := &mockOTPStore{}
	os.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	svc := newService(nil, os, nil, nil)
	err := svc.VerifyOTP(context.Background(), "u1", "111111")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestVerifyOTP_Expired_DeletesRecord(t *testing.T) {
	os := &mockOTPStore{}
	now := time.Now()
	os.On("Get", mock.Anything, "u1").Return(&domain.OTPRecord{
		UserID:    "u1",
		Code:      "111111",
		CreatedAt: now.Add(-2 * time.Minute).Unix(),
		ExpiresAt: now.Add(-time.Minute).Unix(), // past TTL but not yet swept by storage
	}, nil)
	os.On("Delete", mock.Anything, "u1").Return(nil)

	svc := newService(nil, os, nil, nil)
	err := svc.VerifyOTP(context.Background(), "u1", "111111")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	os.AssertExpectations(t)
}

func TestVerifyOTP_HappyPath_MarksVerifiedAndDeletes(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOTPStore{}

	os.On("Get", mock.Anything, "u1").Return(&domain.OTPRecord{
		UserID: "u1", Code: "111111",
		CreatedAt: time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Minute).Unix(),
	}, nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Verified: false}, nil)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{"verified": true}).Return(nil)
	os.On("Delete", mock.Anything, "u1").Return(nil)

	svc := newService(us, os, nil, nil)
	err := svc.VerifyOTP(context.Background(), "u1", "111111")

	require.NoError(t, err)
	us.AssertExpectations(t)
	os.AssertExpectations(t)
}

func TestVerifyOTP_ReplayAfterDeletion_Fails(t *testing.T) {
	// After a successful verification the record is gone, so the second
	// attempt sees an absent record.
	os := &mockOTPStore{}
	os.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	svc := newService(nil, os, nil, nil)
	err := svc.VerifyOTP(context.Background(), "u1", "111111")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

// --- ResendOTP ---

func TestResendOTP_UserNotFound(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, nil, nil)
	err := svc.ResendOTP(context.Background(), "ghost")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestResendOTP_AlreadyVerified(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Verified: true}, nil)

	svc := newService(us, nil, nil, nil)
	err := svc.ResendOTP(context.Background(), "u1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestResendOTP_HappyPath_OverwritesCode(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOTPStore{}
	ml := &mockMailer{}

	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "a@x.com"}, nil)
	os.On("Put", mock.Anything, mock.AnythingOfType("*domain.OTPRecord")).Return(nil)
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(us, os, ml, nil)
	require.NoError(t, svc.ResendOTP(context.Background(), "u1"))
	os.AssertExpectations(t)
	ml.AssertExpectations(t)
}

// --- Login ---

func TestLogin_UnknownEmail_And_WrongPassword_SameMessage(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw123456"), bcrypt.DefaultCost)
	require.NoError(t, err)

	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost@x.com").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{
		UserID: "u1", Email: "a@x.com", Verified: true, PasswordHash: string(hash),
	}, nil)

	svc := newService(us, nil, nil, nil)

	_, errUnknown := svc.Login(context.Background(), "ghost@x.com", "pw123456")
	_, errWrongPw := svc.Login(context.Background(), "a@x.com", "wrongwrong")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPw)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error(),
		"responses must not distinguish unknown email from wrong password")
	assert.True(t, errors.Is(errUnknown, domain.ErrUnauthorized))
	assert.True(t, errors.Is(errWrongPw, domain.ErrUnauthorized))
}

func TestLogin_Unverified_DistinctMessage(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw123456"), bcrypt.DefaultCost)
	require.NoError(t, err)

	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{
		UserID: "u1", Email: "a@x.com", Verified: false, PasswordHash: string(hash),
	}, nil)

	svc := newService(us, nil, nil, nil)
	_, errUnverified := svc.Login(context.Background(), "a@x.com", "pw123456")

	require.Error(t, errUnverified)
	assert.True(t, errors.Is(errUnverified, domain.ErrUnauthorized))
	assert.NotContains(t, errUnverified.Error(), "invalid credentials")
}

func TestLogin_LookupFailure_NotInvalidCredentials(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("dynamo: service unavailable"))

	svc := newService(us, nil, nil, nil)
	_, err := svc.Login(context.Background(), "a@x.com", "pw123456")

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_HappyPath(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw123456"), bcrypt.DefaultCost)
	require.NoError(t, err)

	us := &mockUserStore{}
	jwt := &mockJWTSigner{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{
		UserID: "u1", Name: "Ann", Email: "a@x.com", Role: domain.RoleStudent,
		Verified: true, PasswordHash: string(hash),
	}, nil)
	jwt.On("Sign", "u1", domain.RoleStudent).Return("bearer-token", nil)

	svc := newService(us, nil, nil, jwt)
	res, err := svc.Login(context.Background(), "A@x.com", "pw123456")

	require.NoError(t, err)
	assert.Equal(t, "u1", res.UserID)
	assert.Equal(t, "Ann", res.Name)
	assert.Equal(t, domain.RoleStudent, res.Role)
	assert.Equal(t, "bearer-token", res.Token)
	jwt.AssertExpectations(t)
}
