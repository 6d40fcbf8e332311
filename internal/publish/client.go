// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lod-geoss/databus/internal/common"
	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/dataid"
	"github.com/lod-geoss/databus/internal/opentelemetry"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Returned when the databus rejects a document
type PublishError struct {
	Target     string
	StatusCode int
	Body       string
	Document   []byte
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("could not deploy %s: status %d: %s", e.Target, e.StatusCode, e.Body)
}

// How documents reach the databus
type Mode string

const (
	// PUT each document to the uri of the entity it describes
	ModePut Mode = "put"
	// POST every document to one publish endpoint
	ModePost Mode = "post"
)

type Options struct {
	Mode Mode
	// used in post mode
	Endpoint        string
	ContinueOnError bool
}

// Client publishes dataid documents with a pluggable authenticator
type Client struct {
	httpClient *http.Client
	auth       Authenticator
	opts       Options
}

func NewClient(httpClient *http.Client, auth Authenticator, opts Options) *Client {
	if opts.Mode == "" {
		opts.Mode = ModePut
	}
	return &Client{httpClient: httpClient, auth: auth, opts: opts}
}

// NewClientFromConfig picks the authenticator and publish mode from the cli config
func NewClientFromConfig(conf config.Config) (*Client, error) {
	httpClient := common.NewHTTPClient(common.HTTPOptions{Timeout: conf.Databus.HTTPTimeout})

	var auth Authenticator
	switch conf.Auth.Scheme {
	case config.AuthAPIKey, "":
		auth = APIKeyAuth{Key: conf.Auth.APIKey}
	case config.AuthToken:
		auth = NewTokenAuth(httpClient, conf.Auth.TokenEndpoint, conf.Auth.ClientID, conf.Auth.Username, conf.Auth.Password)
	default:
		return nil, fmt.Errorf("unknown auth scheme %q", conf.Auth.Scheme)
	}

	mode := Mode(strings.ToLower(conf.Databus.PublishMode))
	if mode != ModePut && mode != ModePost && mode != "" {
		return nil, fmt.Errorf("unknown publish mode %q", conf.Databus.PublishMode)
	}

	return NewClient(httpClient, auth, Options{
		Mode:            mode,
		Endpoint:        conf.Databus.PublishEndpointOrDefault(),
		ContinueOnError: conf.Databus.ContinueOnError,
	}), nil
}

// CheckCredentials verifies the credentials without publishing
func (c *Client) CheckCredentials(ctx context.Context) error {
	return c.auth.Check(ctx)
}

// target returns the method and url a document is sent to
func (c *Client) target(entity dataid.Entity) (string, string) {
	if c.opts.Mode == ModePost {
		return http.MethodPost, c.opts.Endpoint
	}
	return http.MethodPut, entity.TargetURI()
}

// Publish renders the entity and sends it to the databus.
// Any status >= 400 is returned as a *PublishError
func (c *Client) Publish(ctx context.Context, entity dataid.Entity) error {
	span, ctx := opentelemetry.SubSpanFromCtxWithName(ctx, "publish_"+entity.TargetURI())
	defer span.End()

	document, err := dataid.Render(entity)
	if err != nil {
		return err
	}

	method, target := c.target(entity)
	log.Infof("Deploying %s", entity.TargetURI())

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(document))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.auth.Apply(ctx, req); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s to %s: %w", entity.TargetURI(), target, err)
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("status", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read the response for %s: %w", entity.TargetURI(), err)
	}

	if resp.StatusCode >= 400 {
		publishErr := &PublishError{Target: target, StatusCode: resp.StatusCode, Body: string(body), Document: document}
		span.SetStatus(codes.Error, publishErr.Error())
		log.Errorf("Response: Status %d; Text: %s", resp.StatusCode, string(body))
		log.Errorf("Problematic file:\n %s", string(document))
		return publishErr
	}

	log.Infof("Response: Status %d for %s", resp.StatusCode, entity.TargetURI())
	return nil
}

// PublishAll publishes entities in order. Authentication failures stop
// the batch immediately; other failures stop it unless ContinueOnError
// is set, in which case every failure is returned joined together
func (c *Client) PublishAll(ctx context.Context, entities ...dataid.Entity) error {
	var failures []error
	for _, entity := range entities {
		err := c.Publish(ctx, entity)
		if err == nil {
			continue
		}
		var authErr *AuthError
		if errors.As(err, &authErr) || !c.opts.ContinueOnError {
			return errors.Join(append(failures, err)...)
		}
		log.Warnf("continuing after failed deploy of %s", entity.TargetURI())
		failures = append(failures, err)
	}
	return errors.Join(failures...)
}
