package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPutter struct {
	mock.Mock
}

func (m *mockPutter) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func TestKeyIsDeterministic(t *testing.T) {
	store := NewS3AttachmentStore(nil, "bucket", "/bills/", zap.NewNop())

	assert.Equal(t, "bills/p1/enel/FA_2024-001.pdf", store.Key("p1", "enel", "FA 2024-001", []byte("x")))
	assert.Equal(t, store.Key("p1", "enel", "", []byte("pdf")), store.Key("p1", "enel", "", []byte("pdf")))
	assert.NotEqual(t, store.Key("p1", "enel", "", []byte("a")), store.Key("p1", "enel", "", []byte("b")))
}

func TestPut(t *testing.T) {
	client := &mockPutter{}
	store := NewS3AttachmentStore(client, "bucket", "bills", zap.NewNop())

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return aws.ToString(in.Bucket) == "bucket" &&
			aws.ToString(in.Key) == "bills/p1/enel/42.pdf" &&
			aws.ToString(in.ContentType) == "application/pdf" &&
			string(body) == "%PDF"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	key, err := store.Put(context.Background(), "p1", "enel", "42", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "bills/p1/enel/42.pdf", key)
	client.AssertExpectations(t)
}

func TestPutFailure(t *testing.T) {
	client := &mockPutter{}
	store := NewS3AttachmentStore(client, "bucket", "", zap.NewNop())
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("denied"))

	_, err := store.Put(context.Background(), "p1", "enel", "42", []byte("%PDF"))
	assert.ErrorContains(t, err, "denied")
}
