package dynamo

import (
	"context"
	"fmt"

	"github.com/account-recovery/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// SecurityAnswerRepo stores user-to-question answers. PK: id, GSI on user_id.
type SecurityAnswerRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSecurityAnswerRepo(client *dynamodb.Client, tableName string) *SecurityAnswerRepo {
	return &SecurityAnswerRepo{client: client, tableName: tableName}
}

func (r *SecurityAnswerRepo) Put(ctx context.Context, a *domain.SecurityAnswer) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal security answer: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}
