package domain

import "time"

// DefaultThumbnail is used when a course is created without a thumbnail image.
const DefaultThumbnail = "https://placehold.co/600x400/EEE/31343C?text=Skillmarket"

// Lesson is embedded in its course document.
type Lesson struct {
	LessonID string `json:"id" dynamodbav:"lesson_id"`
	Title    string `json:"title" dynamodbav:"title"`
	Content  string `json:"content,omitempty" dynamodbav:"content"`
	VideoURL string `json:"videoUrl,omitempty" dynamodbav:"video_url"`
}

type Course struct {
	CourseID       string    `json:"id" dynamodbav:"course_id"`
	Title          string    `json:"title" dynamodbav:"title"`
	Description    string    `json:"description" dynamodbav:"description"`
	InstructorID   string    `json:"instructorId" dynamodbav:"instructor_id"`
	InstructorName string    `json:"instructorName" dynamodbav:"instructor_name"` // denormalized for listings
	Category       string    `json:"category" dynamodbav:"category"`
	Price          float64   `json:"price" dynamodbav:"price"`
	Thumbnail      string    `json:"thumbnail" dynamodbav:"thumbnail"`
	Lessons        []Lesson  `json:"lessons" dynamodbav:"lessons"`
	Students       []string  `json:"students,omitempty" dynamodbav:"students,stringset,omitempty"`
	Rating         float64   `json:"rating" dynamodbav:"rating"`
	NumReviews     int       `json:"numReviews" dynamodbav:"num_reviews"`
	CreatedAt      time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

// Enrolled reports whether userID is in the course's student set.
func (c *Course) Enrolled(userID string) bool {
	for _, s := range c.Students {
		if s == userID {
			return true
		}
	}
	return false
}

type CreateCourseRequest struct {
	Title       string  `validate:"required"`
	Description string  `validate:"required"`
	Category    string  `validate:"required"`
	Price       float64 `validate:"gte=0"`
}

type AddLessonRequest struct {
	Title   string `validate:"required"`
	Content string
}
