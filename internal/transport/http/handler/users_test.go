package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skillmarket/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	args := m.Called(ctx, userID, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- Dashboard ---

func TestDashboardHandler_OK(t *testing.T) {
	courseSvc := &mockCourseSvc{}
	courseSvc.On("Dashboard", mock.Anything, "stud-1").Return(
		[]domain.Course{{CourseID: "c1"}}, []domain.Course{{CourseID: "c2"}}, nil)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/users/dashboard", nil), testStudent)
	rr := httptest.NewRecorder()
	NewUserHandler(&mockUserSvc{}, courseSvc).Dashboard(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var env DashboardEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Len(t, env.CreatedCourses, 1)
	assert.Len(t, env.EnrolledCourses, 1)
}

func TestDashboardHandler_EmptyListsAreArrays(t *testing.T) {
	courseSvc := &mockCourseSvc{}
	courseSvc.On("Dashboard", mock.Anything, "stud-1").Return(nil, nil, nil)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/users/dashboard", nil), testStudent)
	rr := httptest.NewRecorder()
	NewUserHandler(&mockUserSvc{}, courseSvc).Dashboard(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"createdCourses":[],"enrolledCourses":[]}`, rr.Body.String())
}

// --- GetProfile ---

func TestGetProfileHandler_OK_NoPasswordHash(t *testing.T) {
	u := &domain.User{
		UserID: "u1", Name: "Ann", Email: "a@x.com",
		PasswordHash: "$2a$10$secret", Verified: true, Role: domain.RoleStudent,
	}

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/users/profile", nil), u)
	rr := httptest.NewRecorder()
	NewUserHandler(&mockUserSvc{}, &mockCourseSvc{}).GetProfile(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"a@x.com"`)
	assert.NotContains(t, rr.Body.String(), "secret")
}

func TestGetProfileHandler_NoUser_Unauthorized(t *testing.T) {
	rr := httptest.NewRecorder()
	NewUserHandler(&mockUserSvc{}, &mockCourseSvc{}).GetProfile(rr,
		httptest.NewRequest(http.MethodGet, "/api/users/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// --- UpdateProfile ---

func TestUpdateProfileHandler_OK(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("UpdateProfile", mock.Anything, "stud-1", mock.MatchedBy(func(req domain.UpdateProfileRequest) bool {
		return req.Name != nil && *req.Name == "New Name" && req.Bio != nil && *req.Bio == "hi"
	})).Return(&domain.User{
		UserID: "stud-1", Name: "New Name", Email: "s@x.com", Bio: "hi",
		ProfilePicture: "https://cdn.example.com/s.svg",
	}, nil)

	req := withUser(jsonReq(http.MethodPut, "/api/users/profile", `{"name":"New Name","bio":"hi"}`), testStudent)
	rr := httptest.NewRecorder()
	NewUserHandler(svc, &mockCourseSvc{}).UpdateProfile(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var env ProfileEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Equal(t, "stud-1", env.UserID)
	assert.Equal(t, "New Name", env.Name)
	assert.Equal(t, "hi", env.Bio)
}

func TestUpdateProfileHandler_BioTooLong_BadRequest(t *testing.T) {
	svc := &mockUserSvc{}

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	body, err := json.Marshal(map[string]string{"bio": string(long)})
	require.NoError(t, err)

	req := withUser(jsonReq(http.MethodPut, "/api/users/profile", string(body)), testStudent)
	rr := httptest.NewRecorder()
	NewUserHandler(svc, &mockCourseSvc{}).UpdateProfile(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}
