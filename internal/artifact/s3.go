package artifact

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/relgate/relgate/internal/errors"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store keeps bundles in an S3 bucket so that build and publish stages can
// run on separate machines. Objects are keyed {prefix}/{handle}/{filename}.
type S3Store struct {
	client S3API
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Store creates an S3-backed store.
func NewS3Store(client S3API, bucket, prefix string, logger zerolog.Logger) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger.With().Str("service", "artifact_store").Logger(),
	}
}

func (s *S3Store) key(handle, name string) string {
	return path.Join(s.prefix, handle, name)
}

func (s *S3Store) Save(ctx context.Context, handle, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read distribution dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", entry.Name(), err)
		}

		key := s.key(handle, entry.Name())
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}

		s.logger.Info().
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("stored bundle file")
	}

	return nil
}

func (s *S3Store) Fetch(ctx context.Context, handle, destDir string) error {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(handle, "") + "/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list bundle %s: %w", handle, err)
		}
		for _, object := range page.Contents {
			keys = append(keys, aws.ToString(object.Key))
		}
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: %s", errors.ErrBundleNotFound, handle)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create dest dir %s: %w", destDir, err)
	}

	for _, key := range keys {
		if err := s.fetchObject(ctx, key, filepath.Join(destDir, path.Base(key))); err != nil {
			return err
		}
	}

	return nil
}

func (s *S3Store) fetchObject(ctx context.Context, key, dst string) error {
	getOutput, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if stderrors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return fmt.Errorf("%w: %s", errors.ErrBundleNotFound, key)
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer getOutput.Body.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, getOutput.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return out.Close()
}
