package dynamo

import (
	"context"
	"fmt"

	"github.com/account-recovery/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// SecurityQuestionRepo manages the shared question catalog. PK: id.
type SecurityQuestionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSecurityQuestionRepo(client *dynamodb.Client, tableName string) *SecurityQuestionRepo {
	return &SecurityQuestionRepo{client: client, tableName: tableName}
}

func (r *SecurityQuestionRepo) Create(ctx context.Context, q *domain.SecurityQuestion) error {
	item, err := attributevalue.MarshalMap(q)
	if err != nil {
		return fmt.Errorf("marshal security question: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SecurityQuestionRepo) Get(ctx context.Context, id string) (*domain.SecurityQuestion, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldID, id),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("security question %s: %w", id, domain.ErrNotFound)
	}
	var q domain.SecurityQuestion
	if err := attributevalue.UnmarshalMap(out.Item, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// List scans the whole catalog. The table is small and shared, so a paged scan is enough.
func (r *SecurityQuestionRepo) List(ctx context.Context) ([]domain.SecurityQuestion, error) {
	var questions []domain.SecurityQuestion
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []domain.SecurityQuestion
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		questions = append(questions, page...)
	}
	return questions, nil
}
