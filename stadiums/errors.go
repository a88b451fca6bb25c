// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package stadiums

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrEmptyResult          = errors.New("no usable stadium rows")
	ErrInvalidCapacity      = errors.New("invalid capacity")
	ErrInconsistentLocation = errors.New("inconsistent location")
)

// FetchError is returned when the source page cannot be retrieved.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: status %d", e.URL, e.StatusCode)
	}

	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SchemaError is returned when the page doesn't have the expected shape.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string {
	return "unexpected page layout: " + e.Message
}
