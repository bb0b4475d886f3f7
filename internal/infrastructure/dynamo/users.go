package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/account-recovery/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("email-index"),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": fieldEmail},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: email}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ConditionExpression:       aws.String("attribute_exists(" + fieldUserID + ")"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return err
}

// SetPasswordHash replaces the stored bcrypt hash and marks the email confirmed,
// since only a verified recovery can reach this call.
func (r *UserRepo) SetPasswordHash(ctx context.Context, userID, hash string) error {
	return r.Update(ctx, userID, map[string]interface{}{
		fieldPasswordHash:   hash,
		fieldEmailConfirmed: true,
	})
}

// SetResetToken stores the hash of a password reset credential, replacing any
// earlier one. expires_at is kept as Unix seconds.
func (r *UserRepo) SetResetToken(ctx context.Context, userID, hash string, expiresAt time.Time) error {
	return r.Update(ctx, userID, map[string]interface{}{
		fieldResetHash:      hash,
		fieldResetExpiresAt: expiresAt.Unix(),
	})
}

// ConsumeResetToken removes the reset credential in a single conditional
// write: the stored hash must match and must not have expired at now.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, userID, hash string, now time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldUserID, userID),
		UpdateExpression:    aws.String("REMOVE #h, #x"),
		ConditionExpression: aws.String("#h = :hash AND #x > :unix"),
		ExpressionAttributeNames: map[string]string{
			"#h": fieldResetHash,
			"#x": fieldResetExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":hash": &types.AttributeValueMemberS{Value: hash},
			":unix": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if isConditionFailed(err) {
		return domain.ErrInvalidOrExpiredToken
	}
	return err
}
