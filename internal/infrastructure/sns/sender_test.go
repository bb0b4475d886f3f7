package sns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*sns.PublishOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSend_NormalisesNumber(t *testing.T) {
	p := &mockPublisher{}
	p.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return *in.PhoneNumber == "+6281234567890" && *in.Message == "code 123456"
	})).Return(&sns.PublishOutput{}, nil)

	err := NewSenderWithClient(p).Send(context.Background(), "+62 812-3456-7890", "code 123456")
	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestSend_WrapsError(t *testing.T) {
	p := &mockPublisher{}
	p.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := NewSenderWithClient(p).Send(context.Background(), "081234567890", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
