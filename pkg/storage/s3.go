package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
)

type s3Uploader struct {
	client *awss3.S3
}

func newS3(cfg Config) (*s3Uploader, error) {
	awsCfg := aws.NewConfig()
	if cfg.S3.AccessKey != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.S3.AccessKey, cfg.S3.SecretKey, ""))
	}
	if cfg.S3.Region != "" {
		awsCfg = awsCfg.WithRegion(cfg.S3.Region)
	}
	if cfg.S3.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.S3.Endpoint).WithS3ForcePathStyle(true)
	}
	s, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("new aws session: %w", err)
	}
	return &s3Uploader{client: awss3.New(s)}, nil
}

// Upload copies a local file or directory tree under destURI. A single file
// lands at destURI/basename; a directory is mirrored relative to its root.
func (u *s3Uploader) Upload(ctx context.Context, localPath, destURI string) (string, error) {
	_, bucket, keyBase, err := SplitURI(destURI)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", localPath, err)
	}

	if !info.IsDir() {
		key := objectKey(keyBase, filepath.Base(localPath))
		if err := u.putFile(ctx, bucket, key, localPath); err != nil {
			return "", err
		}
		return JoinURI(destURI, filepath.Base(localPath)), nil
	}

	err = filepath.Walk(localPath, func(p string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localPath, p)
		if err != nil {
			return err
		}
		return u.putFile(ctx, bucket, objectKey(keyBase, filepath.ToSlash(rel)), p)
	})
	if err != nil {
		return "", fmt.Errorf("upload directory %s: %w", localPath, err)
	}
	return destURI, nil
}

func (u *s3Uploader) putFile(ctx context.Context, bucket, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = u.client.PutObjectWithContext(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func objectKey(base, name string) string {
	if base == "" {
		return name
	}
	return base + "/" + name
}
