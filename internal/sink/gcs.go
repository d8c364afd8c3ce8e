// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sink

import (
	"cloud.google.com/go/storage"
	"golang.org/x/net/context"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// GCS is a Sink that writes artifacts to a Google Cloud Storage
// bucket.
type GCS struct {
	bucket *storage.BucketHandle
}

// NewGCS constructs a Sink that writes to bucketName, authenticating
// with the application default credentials.
func NewGCS(ctx context.Context, bucketName string) (*GCS, error) {
	ts, err := google.DefaultTokenSource(ctx, storage.ScopeReadWrite)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, err
	}
	return &GCS{client.Bucket(bucketName)}, nil
}

func (s *GCS) NewWriter(ctx context.Context, name string, metadata map[string]string) (Writer, error) {
	ctx, cancel := context.WithCancel(ctx)
	w := s.bucket.Object(name).NewWriter(ctx)
	w.Metadata = metadata
	return &gcsWriter{w, cancel}, nil
}

func (s *GCS) Remove(ctx context.Context, name string) error {
	return s.bucket.Object(name).Delete(ctx)
}

type gcsWriter struct {
	*storage.Writer
	cancel context.CancelFunc
}

func (w *gcsWriter) Close() error {
	defer w.cancel()
	return w.Writer.Close()
}

// CloseWithError abandons the upload. Cancelling the writer's context
// keeps the object from being created.
func (w *gcsWriter) CloseWithError(error) error {
	w.cancel()
	w.Writer.Close()
	return nil
}
