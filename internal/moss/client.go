// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package moss

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/dataid"
	"github.com/lod-geoss/databus/internal/opentelemetry"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/codes"
)

// Returned when MOSS does not accept submitted metadata
type SubmitError struct {
	Identifier string
	StatusCode int
	Reason     string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("could not submit metadata for %s to MOSS. Reason: %s", e.Identifier, e.Reason)
}

// Client submits column annotations to the MOSS annotation api
type Client struct {
	submitEndpoint string
	dataBaseURI    string
	documentName   string
	httpClient     *http.Client
}

func NewClient(conf config.MossConfig, httpClient *http.Client) *Client {
	return &Client{
		submitEndpoint: conf.SubmitEndpoint,
		dataBaseURI:    strings.TrimSuffix(conf.DataBaseURI, "/"),
		documentName:   conf.DocumentName,
		httpClient:     httpClient,
	}
}

// SubmitURL is the endpoint with the identifier as its escaped id parameter
func (c *Client) SubmitURL(identifier string) string {
	params := url.Values{}
	params.Set("id", identifier)
	return c.submitEndpoint + "?" + params.Encode()
}

// Submit PUTs a JSON-LD document for the identifier.
// Anything but 200 is returned as a *SubmitError
func (c *Client) Submit(ctx context.Context, identifier string, metadata []byte) error {
	span, ctx := opentelemetry.SubSpanFromCtxWithName(ctx, "moss_submit")
	defer span.End()

	if !gjson.ValidBytes(metadata) {
		return fmt.Errorf("metadata for %s is not valid json", identifier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.SubmitURL(identifier), bytes.NewReader(metadata))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/ld+json")

	log.Infof("Submitting metadata for %s to MOSS", identifier)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach MOSS: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		reason := http.StatusText(resp.StatusCode)
		if text := strings.TrimSpace(string(body)); text != "" {
			reason = reason + ": " + text
		}
		submitErr := &SubmitError{Identifier: identifier, StatusCode: resp.StatusCode, Reason: reason}
		span.SetStatus(codes.Error, submitErr.Error())
		return submitErr
	}
	return nil
}

// MetadataDocumentURI is where MOSS serves the turtle it stored
// for a distribution identifier
func (c *Client) MetadataDocumentURI(id dataid.DistributionIdentifier) string {
	return MetadataDocumentURI(c.dataBaseURI, id, c.documentName)
}

func MetadataDocumentURI(dataBaseURI string, id dataid.DistributionIdentifier, documentName string) string {
	return strings.TrimSuffix(dataBaseURI, "/") + "/" + id.Path() + "/" + documentName
}
