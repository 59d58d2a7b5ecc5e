package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skillmarket/api/internal/domain"
	"github.com/skillmarket/api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, courseID string, user *domain.User, req domain.CreateReviewRequest) error
	List(ctx context.Context, courseID string) ([]domain.Review, error)
}

type reviewStore interface {
	Put(ctx context.Context, rev *domain.Review) error
	ListByCourse(ctx context.Context, courseID string) ([]domain.Review, error)
}

type courseStore interface {
	Get(ctx context.Context, courseID string) (*domain.Course, error)
	Update(ctx context.Context, courseID string, updates map[string]interface{}) error
}

type service struct {
	repo       reviewStore
	courseRepo courseStore
}

func NewService(repo reviewStore, courseRepo courseStore) Service {
	return &service{repo: repo, courseRepo: courseRepo}
}

func (s *service) Create(ctx context.Context, courseID string, user *domain.User, req domain.CreateReviewRequest) error {
	c, err := s.courseRepo.Get(ctx, courseID)
	if err != nil {
		return err
	}
	if !c.Enrolled(user.UserID) {
		return fmt.Errorf("only enrolled students can review this course: %w", domain.ErrForbidden)
	}
	rev := &domain.Review{
		ReviewID:   id.New(),
		CourseID:   courseID,
		UserID:     user.UserID,
		UserName:   user.Name,
		UserAvatar: user.ProfilePicture,
		Rating:     req.Rating,
		Comment:    req.Comment,
		CreatedAt:  time.Now().UTC(),
	}
	// The conditional put on (course_id, user_id) is the duplicate check —
	// no read-then-write race.
	if err := s.repo.Put(ctx, rev); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("you have already reviewed this course: %w", domain.ErrBadRequest)
		}
		return err
	}

	// Recompute the aggregate from the full review set. Exact mean, recomputed
	// on every write; fine at this catalog's scale.
	reviews, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return err
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	rating := 0.0
	if len(reviews) > 0 {
		rating = float64(sum) / float64(len(reviews))
	}
	return s.courseRepo.Update(ctx, courseID, map[string]interface{}{
		"rating":      rating,
		"num_reviews": len(reviews),
	})
}

func (s *service) List(ctx context.Context, courseID string) ([]domain.Review, error) {
	return s.repo.ListByCourse(ctx, courseID)
}
