// Package catalog loads the read-only reference datasets: the project
// catalog and the website/repository dataset. Both are CSV files read once
// at startup from the local filesystem or S3.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNoS3Client is returned when an s3:// source is configured without a client.
var ErrNoS3Client = errors.New("s3 source requires an S3 client")

// Source yields the raw bytes of a dataset.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileSource reads a local file.
type FileSource struct {
	Path string
}

// Open opens the file.
func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	return f, nil
}

func (s FileSource) String() string {
	return s.Path
}

// S3Getter is the subset of the S3 client used here.
type S3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads an object from S3.
type S3Source struct {
	Client S3Getter
	Bucket string
	Key    string
}

// Open streams the object body.
func (s S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.Client == nil {
		return nil, ErrNoS3Client
	}
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get object %s: %w", s, err)
	}
	return out.Body, nil
}

func (s S3Source) String() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

// ParseSource maps a location to a Source: s3://bucket/key or a file path.
// client may be nil when no S3 location is used.
func ParseSource(location string, client S3Getter) (Source, error) {
	if !strings.HasPrefix(location, "s3://") {
		return FileSource{Path: location}, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse source %q: %w", location, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, fmt.Errorf("s3 source %q must be s3://bucket/key", location)
	}
	if client == nil {
		return nil, ErrNoS3Client
	}
	return S3Source{Client: client, Bucket: u.Host, Key: key}, nil
}

// IsS3 reports whether location names an S3 object.
func IsS3(location string) bool {
	return strings.HasPrefix(location, "s3://")
}
