// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

// Package oep talks to the Open Energy Platform and releases its
// tables to the databus
package oep

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/lod-geoss/databus/internal/common"
	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/opentelemetry"
	log "github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

// Schemas holds every schema tables are registered from by default
var Schemas = []string{
	"boundaries",
	"climate",
	"demand",
	"economy",
	"environment",
	"grid",
	"model_draft",
	"openstreetmap",
	"policy",
	"reference",
	"scenario",
	"society",
	"supply",
}

// Returned when the OEP metadata of a table cannot be released;
// the table is skipped
type MetadataError struct {
	Schema  string
	Table   string
	Message string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("%s for table '%s.%s'", e.Message, e.Schema, e.Table)
}

// The metadata document the OEP stores for one table
type TableMetadata struct {
	Schema string
	Table  string
	Raw    []byte
}

func (m TableMetadata) field(path string) string {
	return gjson.GetBytes(m.Raw, path).String()
}

func (m TableMetadata) Title() string       { return m.field("title") }
func (m TableMetadata) Abstract() string    { return m.field("context.documentation") }
func (m TableMetadata) Description() string { return m.field("description") }
func (m TableMetadata) License() string     { return m.field("licenses.0.path") }

// WithID returns the raw metadata with its @id replaced.
// Numbers are kept as written
func (m TableMetadata) WithID(id string) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(m.Raw))
	decoder.UseNumber()
	var doc map[string]any
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("metadata of %s.%s is not a json object: %w", m.Schema, m.Table, err)
	}
	doc["@id"] = id
	return json.Marshal(doc)
}

// ValidateMetadata checks that a table carries everything a databus release needs
func ValidateMetadata(meta TableMetadata) error {
	parsed := gjson.ParseBytes(meta.Raw)
	if !parsed.IsObject() || len(parsed.Map()) == 0 {
		return &MetadataError{Schema: meta.Schema, Table: meta.Table, Message: "Metadata is empty"}
	}
	if meta.Abstract() == "" {
		return &MetadataError{Schema: meta.Schema, Table: meta.Table, Message: "Abstract is empty"}
	}
	if meta.License() == "" {
		return &MetadataError{Schema: meta.Schema, Table: meta.Table, Message: "No license found"}
	}
	return nil
}

// Client reads table listings and metadata from an OEP instance
type Client struct {
	BaseURL    string
	token      string
	httpClient *http.Client

	robotsOnce sync.Once
	robots     *robotstxt.Group
	robotsErr  error
}

func NewClient(conf config.OepConfig, httpClient *http.Client) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(conf.URL, "/"),
		token:      conf.Token,
		httpClient: httpClient,
	}
}

// HasToken reports whether metadata updates can be sent
func (c *Client) HasToken() bool {
	return c.token != ""
}

// RowsURL is where the rows of a table can be downloaded in the given format
func (c *Client) RowsURL(schema, table, format string) string {
	return fmt.Sprintf("%s/api/v0/schema/%s/tables/%s/rows?form=%s", c.BaseURL, url.PathEscape(schema), url.PathEscape(table), url.QueryEscape(format))
}

// MetaURL is where the metadata of a table is served
func (c *Client) MetaURL(schema, table string) string {
	return fmt.Sprintf("%s/api/v0/schema/%s/tables/%s/meta", c.BaseURL, url.PathEscape(schema), url.PathEscape(table))
}

// loads robots.txt once; a missing robots.txt allows everything
func (c *Client) allowed(ctx context.Context, pagePath string) error {
	c.robotsOnce.Do(func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/robots.txt", nil)
		if err != nil {
			c.robotsErr = err
			return
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.robotsErr = fmt.Errorf("failed to fetch robots.txt: %w", err)
			return
		}
		robots, err := robotstxt.FromResponse(resp)
		_ = resp.Body.Close()
		if err != nil {
			c.robotsErr = fmt.Errorf("failed to parse robots.txt: %w", err)
			return
		}
		c.robots = robots.FindGroup(common.UserAgent)
	})
	if c.robotsErr != nil {
		return c.robotsErr
	}
	if !c.robots.Test(pagePath) {
		return fmt.Errorf("robots.txt of %s disallows %s", c.BaseURL, pagePath)
	}
	return nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned %s", target, resp.Status)
	}
	return body, nil
}

// Tables lists the tables of a schema as shown on its dataedit page
func (c *Client) Tables(ctx context.Context, schema string) ([]string, error) {
	span, ctx := opentelemetry.SubSpanFromCtxWithName(ctx, "oep_tables_"+schema)
	defer span.End()

	pagePath := "/dataedit/view/" + url.PathEscape(schema)
	if err := c.allowed(ctx, pagePath); err != nil {
		return nil, err
	}
	page, err := c.get(ctx, c.BaseURL+pagePath)
	if err != nil {
		return nil, err
	}
	tables, err := parseTableList(page)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables of schema %s: %w", schema, err)
	}
	log.Infof("Found %d tables in schema %s", len(tables), schema)
	return tables, nil
}

func attr(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func findByID(node *html.Node, id string) *html.Node {
	if node.Type == html.ElementNode {
		if value, ok := attr(node, "id"); ok && value == id {
			return node
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

// parseTableList reads the table names from the onclick handlers
// of the rows in the #tables element
func parseTableList(page []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	container := findByID(doc, "tables")
	if container == nil {
		return nil, errors.New("page has no #tables element")
	}

	var tables []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "tr" {
			if onclick, ok := attr(node, "onclick"); ok {
				// onclick="window.location='/dataedit/view/supply/wind_farms'"
				parts := strings.Split(onclick, "'")
				if len(parts) > 1 {
					if name := path.Base(strings.TrimSuffix(parts[1], "/")); name != "" && name != "." && name != "/" {
						tables = append(tables, name)
					}
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(container)
	return tables, nil
}

// TableMeta downloads the metadata of a table
func (c *Client) TableMeta(ctx context.Context, schema, table string) (TableMetadata, error) {
	body, err := c.get(ctx, c.MetaURL(schema, table))
	if err != nil {
		return TableMetadata{}, fmt.Errorf("failed to get metadata of %s.%s: %w", schema, table, err)
	}
	if !gjson.ValidBytes(body) {
		return TableMetadata{}, &MetadataError{Schema: schema, Table: table, Message: "Metadata is not valid json"}
	}
	return TableMetadata{Schema: schema, Table: table, Raw: body}, nil
}

// UpdateMetadata replaces the metadata stored on the OEP for a table
func (c *Client) UpdateMetadata(ctx context.Context, schema, table string, metadata []byte) error {
	if !c.HasToken() {
		return errors.New("no OEP token was configured")
	}
	span, ctx := opentelemetry.SubSpanFromCtxWithName(ctx, "oep_update_"+schema+"."+table)
	defer span.End()

	target := c.MetaURL(schema, table) + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(metadata))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update metadata of %s.%s: %w", schema, table, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("failed to update metadata of %s.%s: status %s: %s", schema, table, resp.Status, string(body))
	}
	log.Infof("Updated OEP metadata of %s.%s", schema, table)
	return nil
}
