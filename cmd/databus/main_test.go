// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/lod-geoss/databus/internal/common/projectpath"
	"github.com/lod-geoss/databus/internal/publish"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T, args ...string) DatabusRunner {
	runner, err := NewDatabusRunner(args)
	require.NoError(t, err)
	return runner
}

func TestDefaultArgs(t *testing.T) {
	defaultRunner := newRunner(t, "test")
	require.NotNil(t, defaultRunner.args.Test)
	require.Equal(t, "https://energy.databus.dbpedia.org", defaultRunner.args.BaseURI)
	require.Equal(t, "api-key", defaultRunner.args.Scheme)
	require.Equal(t, "abort", defaultRunner.args.Policy)
	require.Equal(t, 1, defaultRunner.args.Concurrency)
	require.Equal(t, "databus", defaultRunner.args.Bucket)
	require.Equal(t, "OEP", defaultRunner.args.OepConfig.Group)
}

func TestNoSubcommand(t *testing.T) {
	_, err := NewDatabusRunner([]string{"--log-level", "DEBUG"})
	require.ErrorContains(t, err, "no subcommand")
}

func TestToStructuredConfig(t *testing.T) {
	runner := newRunner(t, "test", "--context-map", "https://b.org/=b.jsonld", "https://a.org/=a.jsonld", "--schema", "supply", "--schema", "grid")
	cfg := runner.args.ToStructuredConfig()
	require.Equal(t, "https://a.org/", cfg.ContextMaps[0].Prefix)
	require.Equal(t, "b.jsonld", cfg.ContextMaps[1].File)
	require.Equal(t, []string{"supply", "grid"}, cfg.Oep.Schemas)
}

func TestInvalidConfigIsRejected(t *testing.T) {
	_, err := newRunner(t, "test", "--fetch-policy", "sometimes").Run(context.Background())
	require.ErrorContains(t, err, "unknown fetch policy")

	_, err = newRunner(t, "test", "--log-level", "LOUD").Run(context.Background())
	require.ErrorContains(t, err, "invalid log level")
}

func TestCredentialCheck(t *testing.T) {
	t.Setenv("DATABUS_API_KEY", "")
	_, err := newRunner(t, "test").Run(context.Background())
	var authErr *publish.AuthError
	require.ErrorAs(t, err, &authErr)

	_, err = newRunner(t, "test", "--api-key", "secret").Run(context.Background())
	require.NoError(t, err)
}

// fakeServices plays the databus, the file host, MOSS and a sparql store
type fakeServices struct {
	*httptest.Server
	mu      sync.Mutex
	puts    map[string][]byte
	apiKeys []string
	moss    map[string][]byte
	updates []string
	asks    []string
	turtle  []byte
}

func newFakeServices(t *testing.T) *fakeServices {
	turtle, err := os.ReadFile(filepath.Join(projectpath.Root, "internal", "columns", "testdata", "annotations.ttl"))
	require.NoError(t, err)

	f := &fakeServices{puts: map[string][]byte{}, moss: map[string][]byte{}, turtle: turtle}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /files/rows.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("year,cap_mw,region\n2020,12.5,north\n"))
	})
	mux.HandleFunc("GET /files/meta", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title": "Wind farms"}`))
	})
	mux.HandleFunc("PUT /lod/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.puts[r.URL.Path] = body
		f.apiKeys = append(f.apiKeys, r.Header.Get("X-API-Key"))
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("PUT /moss/submit", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.moss[r.URL.Query().Get("id")] = body
	})
	mux.HandleFunc("GET /moss/data/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/wind_farms_variant=data.csv/api-demo-data.ttl") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(f.turtle)
	})
	mux.HandleFunc("POST /sparql/update", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.updates = append(f.updates, string(body))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /sparql/query", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if strings.HasPrefix(query, "ASK") {
			f.mu.Lock()
			f.asks = append(f.asks, query)
			f.mu.Unlock()
			_, _ = w.Write([]byte(`{"head": {}, "boolean": false}`))
			return
		}
		_, _ = w.Write([]byte(`{"results": {"bindings": []}}`))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeServices) serviceArgs() []string {
	return []string{
		"--databus-uri", f.URL,
		"--account", "lod",
		"--api-key", "secret",
		"--moss-endpoint", f.URL + "/moss/submit",
		"--moss-data", f.URL + "/moss/data",
		"--sparql-endpoint", f.URL + "/sparql/query",
		"--sparql-update-endpoint", f.URL + "/sparql/update",
	}
}

func writeDataset(t *testing.T, fileHost string) string {
	template, err := os.ReadFile("testdata/dataset.yaml.tmpl")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(string(template), fileHost)), 0644))
	return path
}

func TestDeploy(t *testing.T) {
	services := newFakeServices(t)
	dataset := writeDataset(t, services.URL+"/files")

	args := append([]string{"deploy", "--dataset", dataset, "--group", "testdata/group.yaml"}, services.serviceArgs()...)
	_, err := newRunner(t, args...).Run(context.Background())
	require.NoError(t, err)

	require.Contains(t, services.puts, "/lod/OEP")
	require.Contains(t, services.puts, "/lod/OEP/wind_farms/2021-06-22")
	require.Equal(t, []string{"secret", "secret"}, services.apiKeys)

	version := string(services.puts["/lod/OEP/wind_farms/2021-06-22"])
	require.Contains(t, version, services.URL+"/lod/OEP/wind_farms/2021-06-22#variant=data.csv")
	require.Contains(t, version, services.URL+"/lod/OEP/wind_farms/2021-06-22/wind_farms_variant=metadata.json")
	require.Contains(t, version, `"issued":"2021-06-22T10:00:00Z"`)
}

func TestDeployStopsOnMissingFile(t *testing.T) {
	services := newFakeServices(t)
	dataset := writeDataset(t, services.URL+"/missing")

	args := append([]string{"deploy", "--dataset", dataset, "--group", "testdata/group.yaml"}, services.serviceArgs()...)
	_, err := newRunner(t, args...).Run(context.Background())
	require.ErrorContains(t, err, "404")
	require.Empty(t, services.puts)

	// skipping drops the missing files, which leaves a version without files
	skipArgs := append(append([]string{}, args...), "--fetch-policy", "skip")
	_, err = newRunner(t, skipArgs...).Run(context.Background())
	require.Error(t, err)
	require.Empty(t, services.puts)

	t.Run("error bodies can be kept", func(t *testing.T) {
		keepArgs := append(append([]string{}, args...), "--fetch-policy", "include-with-warning")
		_, err := newRunner(t, keepArgs...).Run(context.Background())
		require.NoError(t, err)
		require.Contains(t, services.puts, "/lod/OEP/wind_farms/2021-06-22")
	})
}

func TestRender(t *testing.T) {
	services := newFakeServices(t)
	dataset := writeDataset(t, services.URL+"/files")
	runner := newRunner(t, append([]string{"render", "--dataset", dataset, "--group", "testdata/group.yaml"}, services.serviceArgs()...)...)
	cfg := runner.args.ToStructuredConfig()

	t.Run("to stdout", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, Render(context.Background(), cfg, *runner.args.Render, &out))
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		require.Contains(t, lines[0], `"dataid:Group"`)
		require.Contains(t, lines[1], `"dataid:Dataset"`)
		require.Empty(t, services.puts)
	})

	t.Run("to a directory", func(t *testing.T) {
		args := *runner.args.Render
		args.Out = t.TempDir()
		require.NoError(t, Render(context.Background(), cfg, args, io.Discard))
		_, err := os.Stat(filepath.Join(args.Out, "dataid", "lod", "OEP", "wind_farms", "2021-06-22.jsonld"))
		require.NoError(t, err)
	})

	t.Run("validated against a local context", func(t *testing.T) {
		args := *runner.args.Render
		args.Validate = true
		withContext := newRunner(t, append([]string{"render", "--dataset", dataset, "--cache",
			"--context-map", "https://downloads.dbpedia.org/databus/context.jsonld=internal/common/testdata/databus-context.jsonld"},
			services.serviceArgs()...)...)
		require.NoError(t, Render(context.Background(), withContext.args.ToStructuredConfig(), args, io.Discard))
	})
}

func TestAnnotate(t *testing.T) {
	services := newFakeServices(t)
	identifier := "https://energy.databus.dbpedia.org/lod/OEP/wind_farms/2021-06-22/wind_farms_variant=data.csv"

	args := append([]string{"annotate", identifier, "testdata/annotation.jsonld", "--mirror-graph"}, services.serviceArgs()...)
	_, err := newRunner(t, args...).Run(context.Background())
	require.NoError(t, err)

	submitted, ok := services.moss[identifier]
	require.True(t, ok)
	annotation, err := os.ReadFile("testdata/annotation.jsonld")
	require.NoError(t, err)
	require.Equal(t, annotation, submitted)

	require.Len(t, services.asks, 1)
	require.Contains(t, services.asks[0], "GRAPH <"+identifier+">")
	require.Len(t, services.updates, 1)
	require.Contains(t, services.updates[0], "GRAPH <"+identifier+">")
	require.Contains(t, services.updates[0], "<http://openenergy-platform.org/ontology/oeo/OEO_00000446>")

	_, err = newRunner(t, append([]string{"annotate", "not-an-identifier", "testdata/annotation.jsonld"}, services.serviceArgs()...)...).Run(context.Background())
	require.ErrorContains(t, err, "not a valid databus identifier")
}

func TestColumns(t *testing.T) {
	services := newFakeServices(t)
	identifier := "https://energy.databus.dbpedia.org/lod/OEP/wind_farms/2021-06-22/wind_farms_variant=data.csv"
	out := filepath.Join(t.TempDir(), "relabelled.csv")
	columnsTestdata := filepath.Join(projectpath.Root, "internal", "columns", "testdata")

	args := append([]string{"columns", identifier,
		"--table", filepath.Join(columnsTestdata, "wind_farms.csv"),
		"--ontology", filepath.Join(columnsTestdata, "labels.ttl"),
		"--out", out,
	}, services.serviceArgs()...)
	_, err := newRunner(t, args...).Run(context.Background())
	require.NoError(t, err)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(written), "year,installed capacity,region,notes\n"))

	t.Run("remote tables are downloaded first", func(t *testing.T) {
		remoteOut := filepath.Join(t.TempDir(), "remote.csv")
		args := append([]string{"columns", identifier, "--table", services.URL + "/files/rows.csv", "--out", remoteOut}, services.serviceArgs()...)
		_, err := newRunner(t, args...).Run(context.Background())
		require.NoError(t, err)
		written, err := os.ReadFile(remoteOut)
		require.NoError(t, err)
		// the sparql endpoint knows no labels so the annotation labels are kept
		require.True(t, strings.HasPrefix(string(written), "year,cap_mw,region\n"))
	})
}
