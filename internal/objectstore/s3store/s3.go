// Dumpwarden - Scheduled Database Dump Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dumpwarden

// Package s3store implements objectstore.Store on Amazon S3 and
// S3-compatible services (MinIO, Backblaze B2, Wasabi).
//
// A folder is a key prefix inside one bucket; the object ID is its full key.
// Credentials come from the standard AWS chain (environment, shared config,
// instance role).
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/tomtom215/dumpwarden/internal/config"
	"github.com/tomtom215/dumpwarden/internal/objectstore"
)

// API is the subset of the S3 client the store uses.
type API interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Store is an S3-backed objectstore.Store.
type Store struct {
	api    API
	bucket string
}

// New builds a client from the default AWS configuration chain.
func New(ctx context.Context, cfg config.S3Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewWithClient(client, cfg.Bucket), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(api API, bucket string) *Store {
	return &Store{api: api, bucket: bucket}
}

// Name implements objectstore.Store.
func (s *Store) Name() string { return "s3" }

// Upload implements objectstore.Store. body should be an io.ReadSeeker
// (an *os.File) so the SDK can sign the payload.
func (s *Store) Upload(ctx context.Context, folder, name string, body io.Reader, size int64) (objectstore.Object, error) {
	key := objectKey(folder, name)
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return objectstore.Object{}, fmt.Errorf("s3 put %s: %w", key, err)
	}

	head, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return objectstore.Object{}, fmt.Errorf("s3 head %s: %w", key, err)
	}
	return objectstore.Object{
		ID:         key,
		Name:       name,
		Size:       aws.ToInt64(head.ContentLength),
		ModifiedAt: aws.ToTime(head.LastModified),
	}, nil
}

// List implements objectstore.Store. Only direct children of folder are
// returned.
func (s *Store) List(ctx context.Context, folder, prefix string) ([]objectstore.Object, error) {
	dir := folderPrefix(folder)
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(dir + prefix),
		Delimiter: aws.String("/"),
	})

	var out []objectstore.Object
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %s: %w", dir, err)
		}
		for _, o := range page.Contents {
			key := aws.ToString(o.Key)
			out = append(out, objectstore.Object{
				ID:         key,
				Name:       strings.TrimPrefix(key, dir),
				Size:       aws.ToInt64(o.Size),
				ModifiedAt: aws.ToTime(o.LastModified),
			})
		}
	}
	return out, nil
}

// Delete implements objectstore.Store. S3 reports success for missing keys,
// so a HEAD first turns those into objectstore.ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(id)}); err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return fmt.Errorf("s3 delete %s: %w", id, objectstore.ErrNotFound)
		}
		return fmt.Errorf("s3 head %s: %w", id, err)
	}
	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(id)}); err != nil {
		return fmt.Errorf("s3 delete %s: %w", id, err)
	}
	return nil
}

func folderPrefix(folder string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return ""
	}
	return folder + "/"
}

func objectKey(folder, name string) string {
	if f := strings.Trim(folder, "/"); f != "" {
		return path.Join(f, name)
	}
	return name
}
