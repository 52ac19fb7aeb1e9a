/*
Copyright (C) 2023, 2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func init() {
	Register("s3", newS3Sink)
}

// S3Sink ships each evicted command as one object, keyed by its audit
// UUID. Grounded on storage/persistence-s3.go's S3Storage: lazy client
// construction behind a mutex, optional custom endpoint and path-style
// addressing for MinIO-alikes.
type S3Sink struct {
	mu     sync.Mutex
	client *s3.Client
	bucket string
	prefix string
}

func newS3Sink(cfg map[string]string) (Sink, error) {
	bucket := cfg["bucket"]
	if bucket == "" {
		return nil, fmt.Errorf("cmdlogd: s3 archive sink requires \"bucket\"")
	}
	prefix := strings.TrimSuffix(cfg["prefix"], "/")

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if region := cfg["region"]; region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if ak, sk := cfg["access_key_id"], cfg["secret_access_key"]; ak != "" && sk != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(ak, sk, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cmdlogd: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if endpoint := cfg["endpoint"]; endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if cfg["force_path_style"] == "true" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3Sink{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (s *S3Sink) key(e Entry) string {
	if s.prefix == "" {
		return e.Key.String()
	}
	return s.prefix + "/" + e.Key.String()
}

func (s *S3Sink) Store(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(e)),
		Body:   bytes.NewReader(e.Payload),
	})
	if err != nil {
		return fmt.Errorf("cmdlogd: s3 put %s: %w", s.key(e), err)
	}
	return nil
}

func (s *S3Sink) Close() error { return nil }
