// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sink provides destinations for exported artifacts.
package sink

import (
	"io"

	"golang.org/x/net/context"
)

// A Sink creates named artifacts.
type Sink interface {
	// NewWriter returns a Writer for the artifact name. If
	// metadata is provided, it will be associated with the
	// artifact where the sink supports it.
	NewWriter(ctx context.Context, name string, metadata map[string]string) (Writer, error)

	// Remove deletes the artifact name.
	Remove(ctx context.Context, name string) error
}

// Writer is the interface for writing an artifact.
type Writer interface {
	io.WriteCloser
	// CloseWithError discards the artifact written so far.
	CloseWithError(error) error
}
