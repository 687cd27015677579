package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relgate/relgate/internal/errors"
)

type mockS3Client struct {
	putObjectFunc     func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	getObjectFunc     func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	listObjectsV2Func func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return m.putObjectFunc(ctx, params, optFns...)
}

func (m *mockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return m.getObjectFunc(ctx, params, optFns...)
}

func (m *mockS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return m.listObjectsV2Func(ctx, params, optFns...)
}

func TestS3StoreSaveKeysObjectsUnderHandle(t *testing.T) {
	var keys []string
	client := &mockS3Client{
		putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			require.Equal(t, "release-bucket", aws.ToString(params.Bucket))
			keys = append(keys, aws.ToString(params.Key))
			return &s3.PutObjectOutput{}, nil
		},
	}
	store := NewS3Store(client, "release-bucket", "bundles", zerolog.Nop())

	distDir := t.TempDir()
	writeFile(t, distDir, "sample-1.0.0-py3-none-any.whl", "wheel")
	writeFile(t, distDir, "sample-1.0.0.tar.gz", "sdist")
	require.NoError(t, os.Mkdir(filepath.Join(distDir, "nested"), 0o755))

	require.NoError(t, store.Save(context.Background(), DefaultHandle, distDir))

	assert.ElementsMatch(t, []string{
		"bundles/" + DefaultHandle + "/sample-1.0.0-py3-none-any.whl",
		"bundles/" + DefaultHandle + "/sample-1.0.0.tar.gz",
	}, keys)
}

func TestS3StoreFetchFollowsPagination(t *testing.T) {
	pages := []*s3.ListObjectsV2Output{
		{
			Contents: []types.Object{
				{Key: aws.String("bundles/" + DefaultHandle + "/sample-1.0.0-py3-none-any.whl")},
			},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("page-2"),
		},
		{
			Contents: []types.Object{
				{Key: aws.String("bundles/" + DefaultHandle + "/sample-1.0.0.tar.gz")},
			},
		},
	}

	var listCalls int
	client := &mockS3Client{
		listObjectsV2Func: func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			page := pages[listCalls]
			if listCalls > 0 {
				require.Equal(t, "page-2", aws.ToString(params.ContinuationToken))
			}
			listCalls++
			return page, nil
		},
		getObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return &s3.GetObjectOutput{
				Body: io.NopCloser(strings.NewReader(aws.ToString(params.Key))),
			}, nil
		},
	}
	store := NewS3Store(client, "release-bucket", "bundles", zerolog.Nop())

	destDir := t.TempDir()
	require.NoError(t, store.Fetch(context.Background(), DefaultHandle, destDir))

	assert.Equal(t, 2, listCalls)

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sample-1.0.0-py3-none-any.whl", entries[0].Name())
	assert.Equal(t, "sample-1.0.0.tar.gz", entries[1].Name())
}

func TestS3StoreFetchMissingBundle(t *testing.T) {
	client := &mockS3Client{
		listObjectsV2Func: func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{}, nil
		},
	}
	store := NewS3Store(client, "release-bucket", "bundles", zerolog.Nop())

	err := store.Fetch(context.Background(), DefaultHandle, t.TempDir())
	assert.ErrorIs(t, err, errors.ErrBundleNotFound)
}
