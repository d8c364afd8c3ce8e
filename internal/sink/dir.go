// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/context"
)

// Dir is a Sink that writes artifacts to files under a local
// directory. Names may contain slashes; missing directories are
// created.
type Dir string

// path returns the file holding the artifact name.
func (d Dir) path(name string) (string, error) {
	path := filepath.Join(string(d), filepath.FromSlash(name))
	if rel, err := filepath.Rel(string(d), path); err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact name %q escapes %s", name, d)
	}
	return path, nil
}

func (d Dir) NewWriter(ctx context.Context, name string, metadata map[string]string) (Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := d.path(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &fileWriter{f}, nil
}

type fileWriter struct {
	*os.File
}

func (w *fileWriter) CloseWithError(error) error {
	w.File.Close()
	return os.Remove(w.File.Name())
}

// Remove deletes the file of the artifact name, then any directories
// below d that this leaves empty.
func (d Dir) Remove(ctx context.Context, name string) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	root := filepath.Clean(string(d))
	for dir := filepath.Dir(path); dir != root && len(dir) > len(root); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			// Not empty.
			break
		}
	}
	return nil
}
