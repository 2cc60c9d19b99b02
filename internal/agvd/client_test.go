package agvd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h3abionet/agvd-cli/internal/variant"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmit_DecodesResults(t *testing.T) {
	var gotBody map[string]any
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"cliVariantSearch":[
			{"variantID":"19_7177679_C_T","mafThreshold":0.003,
			 "agvdThresholdStatus":"BELOW","usedThreshold":0.01,
			 "clusters":[{"name":"Zulu","maf":0.004},{"name":"Yoruba","maf":0.002}]}
		]}}`))
	})

	c := NewClient(srv.URL, "test-key")
	results, err := c.Submit(context.Background(), []string{"19_7177679_C_T"}, 0.01, variant.VariantID)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "19_7177679_C_T", res.VariantID)
	assert.Equal(t, "BELOW", res.Status)
	require.NotNil(t, res.MAFThreshold)
	assert.InDelta(t, 0.003, *res.MAFThreshold, 1e-9)
	require.NotNil(t, res.UsedThreshold)
	assert.InDelta(t, 0.01, *res.UsedThreshold, 1e-9)
	require.Len(t, res.Clusters, 2)
	assert.Equal(t, Cluster{Name: "Zulu", MAF: 0.004}, res.Clusters[0])

	// Request body carries the kind-keyed identifier list and threshold.
	vars := gotBody["variables"].(map[string]any)
	input := vars["input"].(map[string]any)
	assert.Equal(t, []any{"19_7177679_C_T"}, input["variantID"])
	assert.InDelta(t, 0.01, input["threshold"].(float64), 1e-9)
}

func TestSubmit_NullThresholds(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"cliVariantSearch":[
			{"variantID":"1_100_A_T","mafThreshold":null,"agvdThresholdStatus":"","usedThreshold":null}
		]}}`))
	})

	c := NewClient(srv.URL, "")
	results, err := c.Submit(context.Background(), []string{"1_100_A_T"}, 0.05, variant.VariantID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].MAFThreshold)
	assert.Nil(t, results[0].UsedThreshold)
	assert.Empty(t, results[0].Clusters)
}

func TestSubmit_HTTPError(t *testing.T) {
	tests := []struct {
		code    int
		message string
	}{
		{401, "Unauthorized: check your API key"},
		{503, "Service unavailable"},
		{418, "Unknown error"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			})

			c := NewClient(srv.URL, "k")
			_, err := c.Submit(context.Background(), []string{"rs1"}, 0.01, variant.RSID)
			require.Error(t, err)

			var qe *QueryError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, tt.code, qe.Status)
			assert.Equal(t, tt.message, qe.Message)
		})
	}
}

func TestSubmit_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, "k")
	_, err := c.Submit(context.Background(), []string{"rs1"}, 0.01, variant.RSID)
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
}

func TestSubmit_GraphQLError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"threshold out of range"}]}`))
	})

	c := NewClient(srv.URL, "k")
	_, err := c.Submit(context.Background(), []string{"rs1"}, 0.01, variant.RSID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold out of range")
}

func TestSubmit_MalformedResponse(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":`))
	})

	c := NewClient(srv.URL, "k")
	_, err := c.Submit(context.Background(), []string{"rs1"}, 0.01, variant.RSID)
	require.Error(t, err)
}

func TestSubmit_CacheMemoizes(t *testing.T) {
	requests := 0
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"data":{"cliVariantSearch":[{"variantID":"1_100_A_T","agvdThresholdStatus":"ABOVE"}]}}`))
	})

	c := NewClient(srv.URL, "k", WithCache(NewMemoCache(0, 0)))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		results, err := c.Submit(ctx, []string{"1_100_A_T"}, 0.01, variant.VariantID)
		require.NoError(t, err)
		require.Len(t, results, 1)
	}
	assert.Equal(t, 1, requests)

	// A different threshold is a different key.
	_, err := c.Submit(ctx, []string{"1_100_A_T"}, 0.05, variant.VariantID)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
}

func TestSubmit_FailuresNotCached(t *testing.T) {
	requests := 0
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	})

	c := NewClient(srv.URL, "k", WithCache(NewMemoCache(0, 0)))
	for i := 0; i < 2; i++ {
		_, err := c.Submit(context.Background(), []string{"rs1"}, 0.01, variant.RSID)
		require.Error(t, err)
	}
	assert.Equal(t, 2, requests)
}
