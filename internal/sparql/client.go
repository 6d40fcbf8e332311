// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package sparql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/opentelemetry"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// A single RDF term of a result row
type Term struct {
	// uri, literal or bnode
	Type     string
	Value    string
	Lang     string
	Datatype string
}

// One result row keyed by variable name; unbound variables are absent
type Binding map[string]Term

// Client speaks the SPARQL 1.1 protocol to a query and an update endpoint
type Client struct {
	QueryEndpoint  string
	UpdateEndpoint string
	Username       string
	Password       string
	httpClient     *http.Client
}

func NewClient(conf config.SparqlConfig, httpClient *http.Client) *Client {
	return &Client{
		QueryEndpoint:  conf.QueryEndpoint,
		UpdateEndpoint: conf.UpdateEndpoint,
		Username:       conf.SparqlUsername,
		Password:       conf.SparqlPassword,
		httpClient:     httpClient,
	}
}

func (c *Client) authenticate(req *http.Request) {
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}
}

// runs a query and returns the raw sparql-results+json body
func (c *Client) query(ctx context.Context, query string) ([]byte, error) {
	if c.QueryEndpoint == "" {
		return nil, errors.New("no sparql query endpoint was configured")
	}
	params := url.Values{}
	params.Add("query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.QueryEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	c.authenticate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sparql response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sparql query failed with status %s: %s", resp.Status, string(body))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("sparql endpoint %s did not return json", c.QueryEndpoint)
	}
	return body, nil
}

// Select runs a SELECT query and returns its rows in order
func (c *Client) Select(ctx context.Context, query string) ([]Binding, error) {
	span, ctx := opentelemetry.SubSpanFromCtxWithName(ctx, "sparql_select")
	defer span.End()

	body, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}

	var rows []Binding
	gjson.GetBytes(body, "results.bindings").ForEach(func(_, row gjson.Result) bool {
		binding := Binding{}
		row.ForEach(func(variable, term gjson.Result) bool {
			binding[variable.String()] = Term{
				Type:     term.Get("type").String(),
				Value:    term.Get("value").String(),
				Lang:     term.Get("xml:lang").String(),
				Datatype: term.Get("datatype").String(),
			}
			return true
		})
		rows = append(rows, binding)
		return true
	})
	log.Debugf("sparql select returned %d rows", len(rows))
	return rows, nil
}

// Ask runs an ASK query
func (c *Client) Ask(ctx context.Context, query string) (bool, error) {
	body, err := c.query(ctx, query)
	if err != nil {
		return false, err
	}
	result := gjson.GetBytes(body, "boolean")
	if !result.Exists() {
		return false, fmt.Errorf("ask response has no boolean: %s", string(body))
	}
	return result.Bool(), nil
}

// Update sends a SPARQL update to the update endpoint
func (c *Client) Update(ctx context.Context, update string) error {
	if c.UpdateEndpoint == "" {
		return errors.New("no sparql update endpoint was configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.UpdateEndpoint, bytes.NewBufferString(update))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/sparql-update")
	c.authenticate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sparql update failed with status %s: %s", resp.Status, string(body))
	}
	return nil
}

// CheckIRI rejects strings that cannot be placed between < and > in a query
func CheckIRI(iri string) error {
	if iri == "" || strings.ContainsAny(iri, "<>\"{}|^`\\ \n\t") {
		return fmt.Errorf("%q cannot be used as an iri", iri)
	}
	return nil
}

// UpsertNamedGraph replaces the contents of a named graph with the given
// N-Triples in a single update request
func (c *Client) UpsertNamedGraph(ctx context.Context, graph string, triples string) error {
	if err := CheckIRI(graph); err != nil {
		return err
	}
	span, ctx := opentelemetry.SubSpanFromCtxWithName(ctx, "sparql_upsert_"+graph)
	defer span.End()

	log.Debugf("Replacing graph %s", graph)
	update := fmt.Sprintf("DROP SILENT GRAPH <%s> ;\nINSERT DATA {\n  GRAPH <%s> {\n%s  }\n}", graph, graph, triples)
	return c.Update(ctx, update)
}

// GraphExists reports whether the named graph holds any triples
func (c *Client) GraphExists(ctx context.Context, graph string) (bool, error) {
	if err := CheckIRI(graph); err != nil {
		return false, err
	}
	return c.Ask(ctx, fmt.Sprintf("ASK WHERE { GRAPH <%s> { ?s ?p ?o } }", graph))
}
