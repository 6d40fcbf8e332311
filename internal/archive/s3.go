// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/opentelemetry"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

var _ DocumentStorage = &S3Storage{}

// S3Storage keeps documents in a single bucket of an s3 compatible store
type S3Storage struct {
	Client *minio.Client
	Bucket string
}

func NewS3Storage(mcfg config.MinioConfig) (*S3Storage, error) {
	endpoint := mcfg.Address
	if mcfg.Port != 0 {
		endpoint = fmt.Sprintf("%s:%d", mcfg.Address, mcfg.Port)
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(mcfg.Accesskey, mcfg.Secretkey, ""),
		Secure: mcfg.SSL,
	}
	if mcfg.Region == "" {
		log.Info("Minio client created with no region set")
	} else {
		opts.Region = mcfg.Region
	}

	client, err := minio.New(endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &S3Storage{Client: client, Bucket: mcfg.Bucket}, nil
}

// MakeBucket creates the bucket if it does not exist yet
func (s *S3Storage) MakeBucket(ctx context.Context) error {
	exists, err := s.Client.BucketExists(ctx, s.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.Client.MakeBucket(ctx, s.Bucket, minio.MakeBucketOptions{})
}

func (s *S3Storage) Store(ctx context.Context, key string, document []byte) error {
	span, ctx := opentelemetry.SubSpanFromCtxWithName(ctx, "archive_store")
	defer span.End()

	_, err := s.Client.PutObject(ctx, s.Bucket, key, bytes.NewReader(document), int64(len(document)),
		minio.PutObjectOptions{ContentType: "application/ld+json"})
	return err
}

func (s *S3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	object, err := s.Client.GetObject(ctx, s.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = object.Close() }()

	document, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return document, nil
}

func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Client.StatObject(ctx, s.Bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	// NoSuchKey is the s3 error code for a missing object
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, err
}
