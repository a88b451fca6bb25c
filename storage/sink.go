// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage publishes the files produced by a run.
package storage

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink accepts named payloads. Putting an existing name overwrites it.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
}

// Combines multiple closers to ensure all resources are released.
type multiReadCloser struct {
	io.ReadCloser
	underlying io.Closer
}

// Implements io.Closer and ensures all resources are properly released.
func (r *multiReadCloser) Close() error {
	return errors.Join(
		r.ReadCloser.Close(),
		r.underlying.Close(),
	)
}

// DirSink writes payloads under a local directory.
type DirSink struct {
	root string

	// Compress stores payloads gzipped, with a .gz suffix.
	Compress bool
}

// NewDirSink creates a sink rooted at root.
func NewDirSink(root string) *DirSink {
	return &DirSink{root: root}
}

// Converts an object name to a filesystem path.
func (s *DirSink) pathFor(name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("object name %q escapes %s", name, s.root)
	}

	path := filepath.Join(s.root, name)
	if s.Compress {
		path += ".gz"
	}

	return path, nil
}

// Put implements Sink.
func (s *DirSink) Put(_ context.Context, name string, data []byte) (err error) {
	path, err := s.pathFor(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("setting up directory sink: %w", err)
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing file: %w", cerr))
		}
	}()

	var w io.Writer = f

	if s.Compress {
		gw, gerr := gzip.NewWriterLevel(f, gzip.BestCompression)
		if gerr != nil {
			return fmt.Errorf("creating gzip writer: %w", gerr)
		}

		defer func() {
			if cerr := gw.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("closing gzip writer: %w", cerr))
			}
		}()

		w = gw
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	return nil
}

// OpenFile opens a file written by a DirSink, uncompressing it when its name
// ends in .gz.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if filepath.Ext(path) != ".gz" {
		return f, nil
	}

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, errors.Join(f.Close(), fmt.Errorf("creating gzip reader: %w", err))
	}

	return &multiReadCloser{ReadCloser: gr, underlying: f}, nil
}
