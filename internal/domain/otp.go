package domain

// OTPRecord stores the one-time password issued during email verification.
// PK: user_id — one live record per user, so a plain PutItem is the upsert.
// ExpiresAt is a Unix timestamp used as the DynamoDB TTL attribute; expired
// records are treated as absent even before the storage layer removes them.
type OTPRecord struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Code      string `json:"-" dynamodbav:"code"`
	CreatedAt int64  `json:"created_at" dynamodbav:"created_at"` // Unix seconds
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
