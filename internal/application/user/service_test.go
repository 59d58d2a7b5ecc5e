package user

import (
	"context"
	"testing"

	"github.com/skillmarket/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

func strPtr(s string) *string { return &s }

func TestUpdateProfile_NameAndBio(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Update", mock.Anything, "u1", map[string]interface{}{
		"name": "New Name",
		"bio":  "Hello there.",
	}).Return(nil)
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{
		UserID: "u1", Name: "New Name", Bio: "Hello there.",
	}, nil)

	svc := NewService(repo)
	u, err := svc.UpdateProfile(context.Background(), "u1", domain.UpdateProfileRequest{
		Name: strPtr("New Name"),
		Bio:  strPtr("Hello there."),
	})

	require.NoError(t, err)
	assert.Equal(t, "New Name", u.Name)
	repo.AssertExpectations(t)
}

func TestUpdateProfile_EmptyNameIgnored_EmptyBioClears(t *testing.T) {
	// An empty name is treated as "no change"; an empty bio clears the field.
	repo := &mockUserStore{}
	repo.On("Update", mock.Anything, "u1", map[string]interface{}{"bio": ""}).Return(nil)
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Name: "Old"}, nil)

	svc := NewService(repo)
	u, err := svc.UpdateProfile(context.Background(), "u1", domain.UpdateProfileRequest{
		Name: strPtr(""),
		Bio:  strPtr(""),
	})

	require.NoError(t, err)
	assert.Equal(t, "Old", u.Name)
	repo.AssertExpectations(t)
}

func TestUpdateProfile_NoFields_NoWrite(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Name: "Old"}, nil)

	svc := NewService(repo)
	u, err := svc.UpdateProfile(context.Background(), "u1", domain.UpdateProfileRequest{})

	require.NoError(t, err)
	assert.Equal(t, "Old", u.Name)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestGet_NotFound(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	svc := NewService(repo)
	_, err := svc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
