package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/skillmarket/api/internal/domain"
)

// ReviewRepo provides typed DynamoDB operations for the reviews table.
// PK: course_id, SK: user_id — the key schema itself is the uniqueness
// constraint for "one review per user per course".
type ReviewRepo struct {
	client    API
	tableName string
}

func NewReviewRepo(client API, tableName string) *ReviewRepo {
	return &ReviewRepo{client: client, tableName: tableName}
}

// Put inserts a review. The conditional write makes duplicate submissions fail
// atomically even when two arrive concurrently.
func (r *ReviewRepo) Put(ctx context.Context, rev *domain.Review) error {
	item, err := attributevalue.MarshalMap(rev)
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(course_id)"),
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("review already exists: %w", domain.ErrConflict)
	}
	return err
}

// ListByCourse returns every review for the course, paging through the
// partition until exhausted.
func (r *ReviewRepo) ListByCourse(ctx context.Context, courseID string) ([]domain.Review, error) {
	var reviews []domain.Review
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    aws.String("#c = :v"),
			ExpressionAttributeNames:  map[string]string{"#c": "course_id"},
			ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: courseID}},
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Review
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		reviews = append(reviews, page...)
		if out.LastEvaluatedKey == nil {
			return reviews, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
