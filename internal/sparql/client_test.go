// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package sparql

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lod-geoss/databus/internal/config"
	"github.com/stretchr/testify/require"
)

const selectResult = `{
  "head": {"vars": ["label", "about"]},
  "results": {"bindings": [
    {"label": {"type": "literal", "value": "Wind speed", "xml:lang": "en"},
     "about": {"type": "uri", "value": "http://openenergy-platform.org/ontology/oeo/OEO_00000001"}},
    {"label": {"type": "literal", "value": "42", "datatype": "http://www.w3.org/2001/XMLSchema#integer"}}
  ]}
}`

// removes all whitespace so updates can be compared regardless of layout
func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestSelect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/sparql-results+json", r.Header.Get("Accept"))
		require.Contains(t, r.URL.Query().Get("query"), "SELECT ?label")
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "reader", user)
		require.Equal(t, "secret", pass)
		_, _ = w.Write([]byte(selectResult))
	}))
	defer server.Close()

	client := NewClient(config.SparqlConfig{QueryEndpoint: server.URL, SparqlUsername: "reader", SparqlPassword: "secret"}, server.Client())
	rows, err := client.Select(context.Background(), "SELECT ?label ?about WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, Term{Type: "literal", Value: "Wind speed", Lang: "en"}, rows[0]["label"])
	require.Equal(t, "uri", rows[0]["about"].Type)
	_, bound := rows[1]["about"]
	require.False(t, bound)
	require.Equal(t, "http://www.w3.org/2001/XMLSchema#integer", rows[1]["label"].Datatype)
}

func TestQueryFailures(t *testing.T) {
	t.Run("error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "parse error", http.StatusBadRequest)
		}))
		defer server.Close()
		client := NewClient(config.SparqlConfig{QueryEndpoint: server.URL}, server.Client())
		_, err := client.Select(context.Background(), "SELECT")
		require.ErrorContains(t, err, "parse error")
	})

	t.Run("not json", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("Not Acceptable\n"))
		}))
		defer server.Close()
		client := NewClient(config.SparqlConfig{QueryEndpoint: server.URL}, server.Client())
		_, err := client.Ask(context.Background(), "ASK {}")
		require.ErrorContains(t, err, "did not return json")
	})

	t.Run("no endpoint", func(t *testing.T) {
		client := NewClient(config.SparqlConfig{}, http.DefaultClient)
		_, err := client.Select(context.Background(), "SELECT")
		require.Error(t, err)
		require.Error(t, client.Update(context.Background(), "CLEAR ALL"))
	})
}

func TestGraphExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		require.Equal(t, "ASK WHERE { GRAPH <https://example.org/g> { ?s ?p ?o } }", query)
		_, _ = w.Write([]byte(`{"head": {}, "boolean": true}`))
	}))
	defer server.Close()

	client := NewClient(config.SparqlConfig{QueryEndpoint: server.URL}, server.Client())
	exists, err := client.GraphExists(context.Background(), "https://example.org/g")
	require.NoError(t, err)
	require.True(t, exists)

	_, err = client.GraphExists(context.Background(), "https://example.org/g> } DROP ALL {")
	require.Error(t, err)
}

func TestUpsertNamedGraph(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/sparql-update", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		received = string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(config.SparqlConfig{UpdateEndpoint: server.URL}, server.Client())
	triples := "<https://example.org/s> <https://example.org/p> \"o\" .\n"
	require.NoError(t, client.UpsertNamedGraph(context.Background(), "https://example.org/g", triples))

	expected := `DROP SILENT GRAPH <https://example.org/g> ;
		INSERT DATA { GRAPH <https://example.org/g> { <https://example.org/s> <https://example.org/p> "o" . } }`
	require.Equal(t, stripWhitespace(expected), stripWhitespace(received))
}
