package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPromServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestQueryInstant(t *testing.T) {
	server := newPromServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query", r.URL.Path)
		assert.Equal(t, "up", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"status":"success","data":{"resultType":"vector","result":[{"metric":{},"value":[1767225600,"420.5"]}]}}`)
	})

	provider := NewPrometheusProvider(server.URL, 5*time.Second)
	value, found, err := provider.QueryInstant(context.Background(), "up")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 420.5, value)
}

func TestQueryInstant_EmptyVectorIsNotAnError(t *testing.T) {
	server := newPromServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","data":{"resultType":"vector","result":[]}}`)
	})

	provider := NewPrometheusProvider(server.URL, 5*time.Second)
	_, found, err := provider.QueryInstant(context.Background(), "absent_metric")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestQueryInstant_ServerError(t *testing.T) {
	server := newPromServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	provider := NewPrometheusProvider(server.URL, 5*time.Second)
	_, _, err := provider.QueryInstant(context.Background(), "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestQueryInstant_QueryError(t *testing.T) {
	server := newPromServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","error":"parse error"}`)
	})

	provider := NewPrometheusProvider(server.URL, 5*time.Second)
	_, _, err := provider.QueryInstant(context.Background(), "up{")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse error")
}

func TestQueryRange(t *testing.T) {
	server := newPromServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query_range", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("start"))
		assert.NotEmpty(t, r.URL.Query().Get("end"))
		assert.Equal(t, "10", r.URL.Query().Get("step"))
		fmt.Fprint(w, `{"status":"success","data":{"resultType":"matrix","result":[{"metric":{},"values":[[1767225600,"1"],[1767225610,"2"]]}]}}`)
	})

	provider := NewPrometheusProvider(server.URL, 5*time.Second)
	end := time.Now()
	samples, err := provider.QueryRange(context.Background(), "up", end.Add(-time.Minute), end, 10*time.Second)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 1.0, samples[0].Value)
	assert.Equal(t, 2.0, samples[1].Value)
	assert.True(t, samples[0].Timestamp.Before(samples[1].Timestamp))
}

func TestMock_DefaultAndOverrides(t *testing.T) {
	mock := NewMock()

	value, found, err := mock.QueryInstant(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 100.0, value, "unconfigured queries resolve to the default value")

	mock.SetValue("error_rate", 3.5)
	value, found, err = mock.QueryInstant(context.Background(), "error_rate")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3.5, value)

	mock.MarkAbsent("gone")
	_, found, err = mock.QueryInstant(context.Background(), "gone")
	require.NoError(t, err)
	assert.False(t, found)
}
