package course

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/skillmarket/api/internal/domain"
	"github.com/skillmarket/api/internal/pkg/id"
)

// Upload is an in-memory multipart file handed down from the transport layer,
// already size-checked and content-type sniffed.
type Upload struct {
	Reader      io.Reader
	ContentType string
	Filename    string
}

type Service interface {
	Create(ctx context.Context, instructor *domain.User, req domain.CreateCourseRequest, thumbnail *Upload) (*domain.Course, error)
	List(ctx context.Context, search, category string) ([]domain.Course, error)
	Get(ctx context.Context, courseID string) (*domain.Course, error)
	Enroll(ctx context.Context, courseID string, user *domain.User) error
	AddLesson(ctx context.Context, courseID string, user *domain.User, req domain.AddLessonRequest, video *Upload) (*domain.Course, error)
	Delete(ctx context.Context, courseID string, user *domain.User) error
	Dashboard(ctx context.Context, userID string) (created, enrolled []domain.Course, err error)
}

type courseStore interface {
	Put(ctx context.Context, c *domain.Course) error
	Get(ctx context.Context, courseID string) (*domain.Course, error)
	Scan(ctx context.Context) ([]domain.Course, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]domain.Course, error)
	ListByStudent(ctx context.Context, userID string) ([]domain.Course, error)
	AddStudent(ctx context.Context, courseID, userID string) error
	Update(ctx context.Context, courseID string, updates map[string]interface{}) error
	Delete(ctx context.Context, courseID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, objectURL string) error
}

type service struct {
	repo  courseStore
	store objectStore
}

func NewService(repo courseStore, store objectStore) Service {
	return &service{repo: repo, store: store}
}

func (s *service) Create(ctx context.Context, instructor *domain.User, req domain.CreateCourseRequest, thumbnail *Upload) (*domain.Course, error) {
	thumbnailURL := domain.DefaultThumbnail
	if thumbnail != nil {
		url, err := s.store.Upload(ctx, objectKey("thumbnails", thumbnail.Filename), thumbnail.Reader, thumbnail.ContentType)
		if err != nil {
			return nil, fmt.Errorf("upload thumbnail: %w", err)
		}
		thumbnailURL = url
	}
	now := time.Now().UTC()
	c := &domain.Course{
		CourseID:       id.New(),
		Title:          req.Title,
		Description:    req.Description,
		InstructorID:   instructor.UserID,
		InstructorName: instructor.Name,
		Category:       req.Category,
		Price:          req.Price,
		Thumbnail:      thumbnailURL,
		Lessons:        []domain.Lesson{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List applies the search and category filters in memory; both are composable
// and search matches title or category case-insensitively.
func (s *service) List(ctx context.Context, search, category string) ([]domain.Course, error) {
	courses, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	if search == "" && category == "" {
		return courses, nil
	}
	needle := strings.ToLower(search)
	filtered := make([]domain.Course, 0, len(courses))
	for _, c := range courses {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), needle) &&
			!strings.Contains(strings.ToLower(c.Category), needle) {
			continue
		}
		if category != "" && c.Category != category {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered, nil
}

func (s *service) Get(ctx context.Context, courseID string) (*domain.Course, error) {
	return s.repo.Get(ctx, courseID)
}

func (s *service) Enroll(ctx context.Context, courseID string, user *domain.User) error {
	c, err := s.repo.Get(ctx, courseID)
	if err != nil {
		return err
	}
	if c.InstructorID == user.UserID {
		return fmt.Errorf("instructors cannot enroll in their own course: %w", domain.ErrBadRequest)
	}
	if c.Enrolled(user.UserID) {
		return fmt.Errorf("you are already enrolled in this course: %w", domain.ErrBadRequest)
	}
	// The conditional write catches the race where two enrollments pass the
	// check above at the same time.
	if err := s.repo.AddStudent(ctx, courseID, user.UserID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("you are already enrolled in this course: %w", domain.ErrBadRequest)
		}
		return err
	}
	return nil
}

func (s *service) AddLesson(ctx context.Context, courseID string, user *domain.User, req domain.AddLessonRequest, video *Upload) (*domain.Course, error) {
	c, err := s.repo.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c.InstructorID != user.UserID {
		return nil, fmt.Errorf("user not authorized: %w", domain.ErrForbidden)
	}
	if video == nil {
		return nil, fmt.Errorf("please upload a video file: %w", domain.ErrBadRequest)
	}
	videoURL, err := s.store.Upload(ctx, objectKey("videos", video.Filename), video.Reader, video.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload video: %w", err)
	}
	lesson := domain.Lesson{
		LessonID: id.New(),
		Title:    req.Title,
		Content:  req.Content,
		VideoURL: videoURL,
	}
	lessons := append(c.Lessons, lesson)
	if err := s.repo.Update(ctx, courseID, map[string]interface{}{"lessons": lessons}); err != nil {
		return nil, err
	}
	c.Lessons = lessons
	return c, nil
}

func (s *service) Delete(ctx context.Context, courseID string, user *domain.User) error {
	c, err := s.repo.Get(ctx, courseID)
	if err != nil {
		return err
	}
	if c.InstructorID != user.UserID {
		return fmt.Errorf("user not authorized to delete this course: %w", domain.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, courseID); err != nil {
		return err
	}
	// Best effort: the record is gone, so a failed object delete only leaves
	// an orphan in the bucket.
	if c.Thumbnail != "" && c.Thumbnail != domain.DefaultThumbnail {
		if err := s.store.Delete(ctx, c.Thumbnail); err != nil {
			slog.Warn("failed to delete course thumbnail", "course_id", courseID, "err", err)
		}
	}
	for _, lesson := range c.Lessons {
		if lesson.VideoURL == "" {
			continue
		}
		if err := s.store.Delete(ctx, lesson.VideoURL); err != nil {
			slog.Warn("failed to delete lesson video", "course_id", courseID, "lesson_id", lesson.LessonID, "err", err)
		}
	}
	return nil
}

func (s *service) Dashboard(ctx context.Context, userID string) ([]domain.Course, []domain.Course, error) {
	created, err := s.repo.ListByInstructor(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	enrolled, err := s.repo.ListByStudent(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return created, enrolled, nil
}

// objectKey builds a collision-free S3 key, keeping the original extension so
// content type stays guessable for downstream consumers.
func objectKey(prefix, filename string) string {
	return prefix + "/" + id.New() + strings.ToLower(path.Ext(filename))
}
