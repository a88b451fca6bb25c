// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

// Package htmlutils provides utility functions for working with HTML.
package htmlutils

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/footballde/stadiums/utils/textutils"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Node2string appends the text content of n to sb, one space between text
// nodes.
func Node2string(n *html.Node, sb *strings.Builder) (err error) {
	if n.Type == html.TextNode {
		tmp := textutils.Clean(n.Data)

		// a REPLACEMENT CHARACTER (U+FFFD) means that we are reading the
		// document with the incorrect charset
		if strings.ContainsRune(tmp, utf8.RuneError) {
			return fmt.Errorf("charset missmatch found: `%s'", tmp)
		}

		if len(tmp) > 0 {
			if sb.Len() != 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(tmp)
		}
	} else {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			err = Node2string(child, sb)
			if err != nil {
				break
			}
		}
	}

	return err
}

// Validates that response seems to be an HTML response.
func hasHTMLContentType(media string) bool {
	const expectedMedia = "text/html"

	return strings.EqualFold(
		expectedMedia,
		media[0:min(len(media), len(expectedMedia))],
	)
}

// StatusError is returned by AsReader for non successful responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d", e.StatusCode)
}

// AsReader converts an HTTP response body to an io.Reader with the correct charset.
func AsReader(resp *http.Response) (io.Reader, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	media := resp.Header.Get("Content-Type")
	if !hasHTMLContentType(media) {
		return nil, fmt.Errorf("media type is %s", media)
	}

	rr, err := charset.NewReader(resp.Body, media)
	if err != nil {
		return nil, err
	}

	return rr, nil
}

// AsNode parses an io.Reader as an HTML node.
func AsNode(r io.Reader) (*html.Node, error) {
	n, err := html.Parse(r)
	if nil != err {
		return nil, fmt.Errorf("parsing body as HTML: %w", err)
	}

	return n, nil
}
