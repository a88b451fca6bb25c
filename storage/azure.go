// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
)

// SASTokenEnv names the environment variable holding the shared access
// signature of the container.
const SASTokenEnv = "AZURE_SAS_KEY"

// ErrMissingSASToken is returned when no shared access signature is configured.
var ErrMissingSASToken = errors.New("missing shared access signature")

// AzureBlobOptions configures an AzureBlobSink.
type AzureBlobOptions struct {
	// ContainerURL such as https://account.blob.core.windows.net/container
	ContainerURL string

	// SASToken is appended to every blob URL. A leading '?' is optional.
	SASToken string

	// Prefix is prepended to object names, e.g. "Data".
	Prefix string

	// ContentType of the uploaded blobs.
	ContentType string

	// HTTPClient sends the requests; nil uses the SDK default.
	HTTPClient *http.Client
}

// AzureBlobSink uploads payloads as block blobs authorized by a shared
// access signature.
type AzureBlobSink struct {
	options AzureBlobOptions
}

// NewAzureBlobSink validates options and creates the sink.
func NewAzureBlobSink(options AzureBlobOptions) (*AzureBlobSink, error) {
	options.SASToken = strings.TrimPrefix(strings.TrimSpace(options.SASToken), "?")
	if options.SASToken == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingSASToken, SASTokenEnv)
	}

	u, err := url.Parse(options.ContainerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid container URL %q", options.ContainerURL)
	}

	if options.ContentType == "" {
		options.ContentType = "text/csv"
	}

	return &AzureBlobSink{options: options}, nil
}

func (s *AzureBlobSink) blobURL(name string) string {
	return strings.TrimRight(s.options.ContainerURL, "/") + "/" +
		path.Join(s.options.Prefix, name) + "?" + s.options.SASToken
}

// Put implements Sink.
func (s *AzureBlobSink) Put(ctx context.Context, name string, data []byte) error {
	var clientOptions *blockblob.ClientOptions
	if s.options.HTTPClient != nil {
		clientOptions = &blockblob.ClientOptions{
			ClientOptions: azcore.ClientOptions{Transport: s.options.HTTPClient},
		}
	}

	client, err := blockblob.NewClientWithNoCredential(s.blobURL(name), clientOptions)
	if err != nil {
		return fmt.Errorf("creating blob client for %s: %w", name, err)
	}

	contentType := s.options.ContentType

	_, err = client.UploadBuffer(ctx, data, &blockblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}

	return nil
}
