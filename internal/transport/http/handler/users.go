package handler

import (
	"encoding/json"
	"net/http"

	"github.com/skillmarket/api/internal/application/course"
	"github.com/skillmarket/api/internal/application/user"
	"github.com/skillmarket/api/internal/domain"
	"github.com/skillmarket/api/internal/pkg/validate"
	"github.com/skillmarket/api/internal/transport/http/middleware"
)

// UserHandler handles profile and dashboard endpoints.
type UserHandler struct {
	svc       user.Service
	courseSvc course.Service
}

func NewUserHandler(svc user.Service, courseSvc course.Service) *UserHandler {
	return &UserHandler{svc: svc, courseSvc: courseSvc}
}

func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	created, enrolled, err := h.courseSvc.Dashboard(r.Context(), u.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	if created == nil {
		created = []domain.Course{}
	}
	if enrolled == nil {
		enrolled = []domain.Course{}
	}
	writeJSON(w, http.StatusOK, DashboardEnvelope{CreatedCourses: created, EnrolledCourses: enrolled})
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	// The middleware already loaded the user; password hash is never serialized.
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.svc.UpdateProfile(r.Context(), u.UserID, req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{
		UserID:         updated.UserID,
		Name:           updated.Name,
		Email:          updated.Email,
		Bio:            updated.Bio,
		ProfilePicture: updated.ProfilePicture,
	})
}
