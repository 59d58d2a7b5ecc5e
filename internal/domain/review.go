package domain

import "time"

// Review is keyed by (course_id, user_id) — the composite primary key is what
// enforces at-most-one review per user per course at the storage layer.
// Reviewer name and avatar are denormalized at write time so listings don't
// fan out into the users table.
type Review struct {
	ReviewID   string    `json:"id" dynamodbav:"review_id"`
	CourseID   string    `json:"courseId" dynamodbav:"course_id"`
	UserID     string    `json:"userId" dynamodbav:"user_id"`
	UserName   string    `json:"userName" dynamodbav:"user_name"`
	UserAvatar string    `json:"userAvatar" dynamodbav:"user_avatar"`
	Rating     int       `json:"rating" dynamodbav:"rating"`
	Comment    string    `json:"comment" dynamodbav:"comment"`
	CreatedAt  time.Time `json:"createdAt" dynamodbav:"created_at"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required"`
}
