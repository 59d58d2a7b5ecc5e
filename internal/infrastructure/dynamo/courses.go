package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/skillmarket/api/internal/domain"
)

// CourseRepo provides typed DynamoDB operations for the courses table.
type CourseRepo struct {
	client    API
	tableName string
}

func NewCourseRepo(client API, tableName string) *CourseRepo {
	return &CourseRepo{client: client, tableName: tableName}
}

func (r *CourseRepo) Put(ctx context.Context, c *domain.Course) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal course: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *CourseRepo) Get(ctx context.Context, courseID string) (*domain.Course, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("course_id", courseID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("course not found: %w", domain.ErrNotFound)
	}
	var c domain.Course
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Scan returns every course. The catalog is small enough that search and
// category filters are applied in the service layer, where they can be
// case-insensitive (DynamoDB contains() is not).
func (r *CourseRepo) Scan(ctx context.Context) ([]domain.Course, error) {
	var courses []domain.Course
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Course
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		courses = append(courses, page...)
		if out.LastEvaluatedKey == nil {
			return courses, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// ListByInstructor queries the instructor_id-index GSI, paging until exhausted.
func (r *CourseRepo) ListByInstructor(ctx context.Context, instructorID string) ([]domain.Course, error) {
	var courses []domain.Course
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String("instructor_id-index"),
			KeyConditionExpression:    aws.String("#i = :v"),
			ExpressionAttributeNames:  map[string]string{"#i": "instructor_id"},
			ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: instructorID}},
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Course
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		courses = append(courses, page...)
		if out.LastEvaluatedKey == nil {
			return courses, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// ListByStudent scans for courses whose student set contains userID. The filter
// is applied after each 1MB scan page, so this pages through the whole table —
// stopping at the first page would drop enrollments once the table grows.
func (r *CourseRepo) ListByStudent(ctx context.Context, userID string) ([]domain.Course, error) {
	var courses []domain.Course
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(r.tableName),
			FilterExpression:          aws.String("contains(students, :u)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{":u": &types.AttributeValueMemberS{Value: userID}},
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Course
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		courses = append(courses, page...)
		if out.LastEvaluatedKey == nil {
			return courses, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// AddStudent adds userID to the course's student set. The conditional write
// rejects duplicate enrollments atomically, so two concurrent enrollments
// cannot both succeed.
func (r *CourseRepo) AddStudent(ctx context.Context, courseID, userID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("course_id", courseID),
		UpdateExpression:    aws.String("ADD students :u SET updated_at = :t"),
		ConditionExpression: aws.String("attribute_exists(course_id) AND NOT contains(students, :uid)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u":   &types.AttributeValueMemberSS{Value: []string{userID}},
			":uid": &types.AttributeValueMemberS{Value: userID},
			":t":   &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("already enrolled: %w", domain.ErrConflict)
	}
	return err
}

func (r *CourseRepo) Update(ctx context.Context, courseID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("course_id", courseID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *CourseRepo) Delete(ctx context.Context, courseID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("course_id", courseID),
	})
	return err
}
