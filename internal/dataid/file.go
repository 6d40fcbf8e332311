// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package dataid

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/lod-geoss/databus/internal/common"
	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/opentelemetry"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// A remote file to describe, as written in a dataset description
type FileSource struct {
	URL             string
	ContentVariants ContentVariants
	FormatExtension string
}

// FileDescriptor holds everything a version document says about one file.
// It is created once by the fetcher and cannot be changed afterwards
type FileDescriptor struct {
	sourceURL       string
	contentVariants ContentVariants
	formatExtension string
	byteSize        int64
	sha256sum       string
	fetchStatus     int
}

// NewFileDescriptor describes content that has already been read
func NewFileDescriptor(source FileSource, content []byte) FileDescriptor {
	return FileDescriptor{
		sourceURL:       source.URL,
		contentVariants: source.ContentVariants.clone(),
		formatExtension: source.FormatExtension,
		byteSize:        int64(len(content)),
		sha256sum:       common.SHA256Hex(content),
		fetchStatus:     http.StatusOK,
	}
}

func (f FileDescriptor) SourceURL() string { return f.sourceURL }

func (f FileDescriptor) ContentVariants() ContentVariants { return f.contentVariants.clone() }

func (f FileDescriptor) FormatExtension() string { return f.formatExtension }

func (f FileDescriptor) ByteSize() int64 { return f.byteSize }

// hex encoded sha256 of the fetched bytes
func (f FileDescriptor) SHA256() string { return f.sha256sum }

// the http status the file was fetched with; only differs from
// 200 when a failed fetch was kept under include-with-warning
func (f FileDescriptor) FetchStatus() int { return f.fetchStatus }

func (f FileDescriptor) IdentifierSuffix() string {
	return f.contentVariants.Suffix(f.formatExtension)
}

// What to do with a file that answered with a status >= 400
type FetchPolicy string

const (
	FetchAbort              FetchPolicy = "abort"
	FetchSkip               FetchPolicy = "skip"
	FetchIncludeWithWarning FetchPolicy = "include-with-warning"
)

func ParseFetchPolicy(policy string) (FetchPolicy, error) {
	switch p := FetchPolicy(policy); p {
	case FetchAbort, FetchSkip, FetchIncludeWithWarning:
		return p, nil
	case "":
		return FetchAbort, nil
	default:
		return "", fmt.Errorf("unknown fetch policy %q", policy)
	}
}

// Returned when a file could not be fetched
type FetchError struct {
	URL string
	// zero when the request never got a response
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s: got status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher downloads remote files and describes them
type Fetcher struct {
	client      *http.Client
	policy      FetchPolicy
	concurrency int
}

// NewFetcher builds a fetcher from the cli fetch options
func NewFetcher(conf config.FetchConfig) (*Fetcher, error) {
	policy, err := ParseFetchPolicy(conf.Policy)
	if err != nil {
		return nil, err
	}
	client := common.NewHTTPClient(common.HTTPOptions{
		Timeout: conf.Timeout,
		Retries: conf.Retries,
	})
	return NewFetcherWithClient(client, policy, conf.Concurrency), nil
}

func NewFetcherWithClient(client *http.Client, policy FetchPolicy, concurrency int) *Fetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if policy == "" {
		policy = FetchAbort
	}
	return &Fetcher{client: client, policy: policy, concurrency: concurrency}
}

// Fetch downloads one file and describes it. The returned bool is false
// when the file failed and the skip policy dropped it
func (f *Fetcher) Fetch(ctx context.Context, source FileSource) (FileDescriptor, bool, error) {
	span, ctx := opentelemetry.SubSpanFromCtxWithName(ctx, "fetch_"+source.URL)
	defer span.End()

	log.Infof("Fetching data from %s", source.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return FileDescriptor{}, false, &FetchError{URL: source.URL, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return FileDescriptor{}, false, &FetchError{URL: source.URL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("status", resp.StatusCode))

	if resp.StatusCode >= 400 {
		fetchErr := &FetchError{URL: source.URL, StatusCode: resp.StatusCode}
		span.SetStatus(codes.Error, fetchErr.Error())
		switch f.policy {
		case FetchSkip:
			log.Warnf("%v; skipping the file", fetchErr)
			return FileDescriptor{}, false, nil
		case FetchIncludeWithWarning:
			log.Warnf("%v; describing the error body instead", fetchErr)
		default:
			return FileDescriptor{}, false, fetchErr
		}
	}

	var buf bytes.Buffer
	sum, size, err := common.CopyAndHash(&buf, resp.Body)
	if err != nil {
		return FileDescriptor{}, false, &FetchError{URL: source.URL, StatusCode: resp.StatusCode, Err: err}
	}
	log.Debugf("fetched %d bytes from %s with sha256 %s", size, source.URL, sum)

	return FileDescriptor{
		sourceURL:       source.URL,
		contentVariants: source.ContentVariants.clone(),
		formatExtension: source.FormatExtension,
		byteSize:        size,
		sha256sum:       sum,
		fetchStatus:     resp.StatusCode,
	}, true, nil
}

// FetchAll describes every source, keeping the input order.
// Skipped files are left out; the first error cancels the rest
func (f *Fetcher) FetchAll(ctx context.Context, sources []FileSource) ([]FileDescriptor, error) {
	results := make([]FileDescriptor, len(sources))
	kept := make([]bool, len(sources))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(f.concurrency)
	for i, source := range sources {
		group.Go(func() error {
			descriptor, ok, err := f.Fetch(ctx, source)
			if err != nil {
				return err
			}
			results[i], kept[i] = descriptor, ok
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	descriptors := make([]FileDescriptor, 0, len(sources))
	for i, descriptor := range results {
		if kept[i] {
			descriptors = append(descriptors, descriptor)
		}
	}
	return descriptors, nil
}
