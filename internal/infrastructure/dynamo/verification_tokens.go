package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/account-recovery/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// VerificationTokenRepo stores email verification tokens.
// PK: token. expires_at is Unix seconds; used_at is absent until redemption.
type VerificationTokenRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationTokenRepo(client *dynamodb.Client, tableName string) *VerificationTokenRepo {
	return &VerificationTokenRepo{client: client, tableName: tableName}
}

// Create inserts a new token row. Tokens are random, so an existing key is a conflict.
func (r *VerificationTokenRepo) Create(ctx context.Context, t *domain.VerificationToken) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal verification token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#t)"),
		ExpressionAttributeNames: map[string]string{"#t": fieldToken},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("verification token already exists: %w", domain.ErrConflict)
	}
	return err
}

// Redeem stamps used_at on the row matching email and token, in a single
// conditional write: the row must exist, be unused and be unexpired at now.
func (r *VerificationTokenRepo) Redeem(ctx context.Context, email, token string, now time.Time) error {
	usedAt, err := attributevalue.Marshal(now.UTC())
	if err != nil {
		return fmt.Errorf("marshal used_at: %w", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldToken, token),
		UpdateExpression:    aws.String("SET #u = :now"),
		ConditionExpression: aws.String("#e = :email AND attribute_not_exists(#u) AND #x > :unix"),
		ExpressionAttributeNames: map[string]string{
			"#u": fieldUsedAt,
			"#e": fieldEmail,
			"#x": fieldExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":   usedAt,
			":email": &types.AttributeValueMemberS{Value: email},
			":unix":  &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if isConditionFailed(err) {
		return domain.ErrInvalidOrExpiredToken
	}
	return err
}

// Invalidate stamps used_at on an unused token so it can no longer be redeemed.
// The row itself is kept for audit.
func (r *VerificationTokenRepo) Invalidate(ctx context.Context, token string, now time.Time) error {
	usedAt, err := attributevalue.Marshal(now.UTC())
	if err != nil {
		return fmt.Errorf("marshal used_at: %w", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldToken, token),
		UpdateExpression:          aws.String("SET #u = :now"),
		ConditionExpression:       aws.String("attribute_exists(#t) AND attribute_not_exists(#u)"),
		ExpressionAttributeNames:  map[string]string{"#u": fieldUsedAt, "#t": fieldToken},
		ExpressionAttributeValues: map[string]types.AttributeValue{":now": usedAt},
	})
	if isConditionFailed(err) {
		return nil
	}
	return err
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}
