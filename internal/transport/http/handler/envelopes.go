package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/skillmarket/api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

// DashboardEnvelope groups a user's authored and enrolled courses.
type DashboardEnvelope struct {
	CreatedCourses  []domain.Course `json:"createdCourses"`
	EnrolledCourses []domain.Course `json:"enrolledCourses"`
}

// LessonEnvelope wraps the add-lesson response.
type LessonEnvelope struct {
	Message string         `json:"message"`
	Course  *domain.Course `json:"course"`
}

// ProfileEnvelope is the subset of user fields returned by profile updates.
type ProfileEnvelope struct {
	UserID         string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg})
}

// respondError maps a wrapped domain sentinel to an HTTP status. Anything
// without a sentinel is an upstream failure: logged, generic 500 to the caller.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusBadRequest, errMessage(err))
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, errMessage(err))
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, errMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, errMessage(err))
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

// errMessage strips the trailing ": <sentinel>" wrap so responses carry only
// the human-readable part.
func errMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{
		domain.ErrBadRequest, domain.ErrConflict, domain.ErrUnauthorized,
		domain.ErrForbidden, domain.ErrNotFound,
	} {
		suffix := ": " + sentinel.Error()
		if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
			return msg[:len(msg)-len(suffix)]
		}
	}
	return msg
}
