package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skillmarket/api/internal/application/course"
	"github.com/skillmarket/api/internal/domain"
	"github.com/skillmarket/api/internal/pkg/validate"
	"github.com/skillmarket/api/internal/transport/http/middleware"
)

// Upload limits. Oversized videos get a 413; anything else invalid gets a 400.
const (
	maxImageSize = 10 << 20 // 10 MB
	maxVideoSize = 50 << 20 // 50 MB

	// Slack on top of the file limit for text fields and multipart framing.
	maxFormOverhead = 1 << 20
)

var (
	errVideoTooLarge = errors.New("video file is too large, maximum size is 50 MB")
	errImageTooLarge = errors.New("image file is too large, maximum size is 10 MB")
	errNotVideo      = errors.New("not a video file, please upload only videos")
	errNotImage      = errors.New("not an image file, please upload only images")
)

func errBadUpload(field string) error {
	return fmt.Errorf("could not read uploaded %s", field)
}

// CourseHandler handles course CRUD, enrollment and lesson endpoints.
type CourseHandler struct {
	svc course.Service
}

func NewCourseHandler(svc course.Service) *CourseHandler { return &CourseHandler{svc: svc} }

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	// Cap the body before parsing — ParseMultipartForm only bounds memory and
	// would otherwise spool an arbitrarily large upload to disk in full.
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+maxFormOverhead)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusBadRequest, errImageTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	priceStr := r.FormValue("price")
	if priceStr == "" {
		writeError(w, http.StatusBadRequest, "please provide all required fields")
		return
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "price must be a number")
		return
	}
	req := domain.CreateCourseRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Price:       price,
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	thumbnail, status, err := formUpload(r, "thumbnail", "image/", maxImageSize)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	if thumbnail != nil {
		defer thumbnail.close()
	}

	c, err := h.svc.Create(r.Context(), u, req, thumbnail.toUpload())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.svc.List(r.Context(), r.URL.Query().Get("search"), r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, err)
		return
	}
	if courses == nil {
		courses = []domain.Course{}
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CourseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Enroll(r.Context(), chi.URLParam(r, "id"), u); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Successfully enrolled in the course!"})
}

func (h *CourseHandler) AddLesson(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxVideoSize+maxFormOverhead)
	if err := r.ParseMultipartForm(maxVideoSize); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, errVideoTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	req := domain.AddLessonRequest{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	video, status, err := formUpload(r, "video", "video/", maxVideoSize)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	if video != nil {
		defer video.close()
	}

	c, err := h.svc.AddLesson(r.Context(), chi.URLParam(r, "id"), u, req, video.toUpload())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, LessonEnvelope{Message: "Lesson added successfully", Course: c})
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), u); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Course removed successfully"})
}

// formFile pairs an open multipart file with its sniffed content type.
type formFile struct {
	file        multipart.File
	filename    string
	contentType string
}

func (f *formFile) toUpload() *course.Upload {
	if f == nil {
		return nil
	}
	return &course.Upload{Reader: f.file, ContentType: f.contentType, Filename: f.filename}
}

func (f *formFile) close() {
	_ = f.file.Close()
}

// formUpload pulls the named file out of an already-parsed multipart form and
// enforces the size limit and content-type prefix. The content type comes from
// sniffing the first 512 bytes, not from the client-supplied header. A missing
// file is not an error — the caller decides whether it is required.
func formUpload(r *http.Request, field, typePrefix string, maxSize int64) (*formFile, int, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, 0, nil
	}
	if err != nil {
		return nil, http.StatusBadRequest, errBadUpload(field)
	}
	if header.Size > maxSize {
		_ = file.Close()
		if typePrefix == "video/" {
			return nil, http.StatusRequestEntityTooLarge, errVideoTooLarge
		}
		return nil, http.StatusBadRequest, errImageTooLarge
	}

	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && n == 0 {
		_ = file.Close()
		return nil, http.StatusBadRequest, errBadUpload(field)
	}
	if _, err := file.Seek(0, 0); err != nil {
		_ = file.Close()
		return nil, http.StatusBadRequest, errBadUpload(field)
	}
	contentType := http.DetectContentType(buf[:n])
	if !strings.HasPrefix(contentType, typePrefix) {
		_ = file.Close()
		if typePrefix == "video/" {
			return nil, http.StatusBadRequest, errNotVideo
		}
		return nil, http.StatusBadRequest, errNotImage
	}
	return &formFile{file: file, filename: header.Filename, contentType: contentType}, 0, nil
}
