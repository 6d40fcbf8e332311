// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package moss

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lod-geoss/databus/internal/config"
	"github.com/lod-geoss/databus/internal/dataid"
	"github.com/stretchr/testify/require"
)

const identifier = "https://energy.databus.dbpedia.org/lod-geoss/OEP/wind_turbine_library"

func TestSubmit(t *testing.T) {
	var gotID, gotType, gotBody, rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotID = r.URL.Query().Get("id")
		rawQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer server.Close()

	client := NewClient(config.MossConfig{SubmitEndpoint: server.URL + "/annotation-api-demo/submit"}, server.Client())
	require.NoError(t, client.Submit(context.Background(), identifier, []byte(`{"title": "Wind turbines"}`)))

	require.Equal(t, identifier, gotID)
	require.NotContains(t, rawQuery, "https://", "the identifier is escaped")
	require.Equal(t, "application/ld+json", gotType)
	require.JSONEq(t, `{"title": "Wind turbines"}`, gotBody)
}

func TestSubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "identifier unknown", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(config.MossConfig{SubmitEndpoint: server.URL}, server.Client())
	err := client.Submit(context.Background(), identifier, []byte(`{}`))

	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	require.Equal(t, http.StatusBadRequest, submitErr.StatusCode)
	require.Equal(t, "Bad Request: identifier unknown", submitErr.Reason)
	require.Equal(t, identifier, submitErr.Identifier)
}

func TestSubmitOnlyAcceptsOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(config.MossConfig{SubmitEndpoint: server.URL}, server.Client())
	var submitErr *SubmitError
	require.ErrorAs(t, client.Submit(context.Background(), identifier, []byte(`{}`)), &submitErr)
	require.Equal(t, "Accepted", submitErr.Reason)
}

func TestSubmitRejectsInvalidJSON(t *testing.T) {
	client := NewClient(config.MossConfig{SubmitEndpoint: "http://127.0.0.1:1"}, http.DefaultClient)
	require.ErrorContains(t, client.Submit(context.Background(), identifier, []byte(`{`)), "not valid json")
}

func TestMetadataDocumentURI(t *testing.T) {
	id, err := dataid.ParseDistributionIdentifier("https://databus.dbpedia.org/denis/lod-geoss-example/api-example/2021-06-22/api-example_type=turbineData.json")
	require.NoError(t, err)

	client := NewClient(config.MossConfig{DataBaseURI: "https://moss.tools.dbpedia.org/data/", DocumentName: "api-demo-data.ttl"}, http.DefaultClient)
	require.Equal(t,
		"https://moss.tools.dbpedia.org/data/denis/lod-geoss-example/api-example/2021-06-22/api-example_type=turbineData.json/api-demo-data.ttl",
		client.MetadataDocumentURI(id))
}
