// Package modelstore fetches classifier artifacts from S3 so deployments
// can point MAESTRO_MODEL_PATH at an object store instead of baking the
// model into the image.
package modelstore

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// IsS3URI reports whether a path refers to an S3 object.
func IsS3URI(s string) bool {
	return strings.HasPrefix(s, "s3://")
}

func splitURI(uri string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed s3 uri: %s", uri)
	}
	return parts[0], parts[1], nil
}

// Fetch downloads an s3:// artifact into cacheDir and returns the local
// path. An already downloaded copy is reused; model artifacts are immutable
// per deployment.
func Fetch(uri, cacheDir string) (string, error) {
	bucket, key, err := splitURI(uri)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("create artifact cache: %w", err)
	}
	local := filepath.Join(cacheDir, path.Base(key))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region()),
	})
	if err != nil {
		return "", fmt.Errorf("create aws session: %w", err)
	}

	f, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("create artifact file: %w", err)
	}
	defer f.Close()

	downloader := s3manager.NewDownloader(sess)
	if _, err := downloader.Download(f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		os.Remove(local)
		return "", fmt.Errorf("download %s: %w", uri, err)
	}

	return local, nil
}

func region() string {
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	return "us-east-1"
}
