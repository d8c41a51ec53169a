package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// PrometheusProvider queries a Prometheus server over its HTTP API
type PrometheusProvider struct {
	endpoint string
	client   *http.Client
}

// NewPrometheusProvider returns a provider against the given server endpoint,
// e.g. http://prometheus:9090. The timeout bounds every query.
func NewPrometheusProvider(endpoint string, timeout time.Duration) *PrometheusProvider {
	return &PrometheusProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// promResponse mirrors the subset of the Prometheus query API we consume
type promResponse struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string `json:"resultType"`
		Result     []struct {
			Metric map[string]string `json:"metric"`
			Value  []interface{}     `json:"value"`
			Values [][]interface{}   `json:"values"`
		} `json:"result"`
	} `json:"data"`
	Error string `json:"error"`
}

// QueryInstant evaluates the query at the current instant.
// An empty result vector is reported as found=false, not as an error,
// the evaluator decides how to treat the absent sample.
func (p *PrometheusProvider) QueryInstant(ctx context.Context, query string) (float64, bool, error) {
	params := url.Values{}
	params.Set("query", query)

	resp, err := p.call(ctx, "/api/v1/query", params)
	if err != nil {
		return 0, false, err
	}
	if len(resp.Data.Result) == 0 {
		return 0, false, nil
	}

	value, err := parseSampleValue(resp.Data.Result[0].Value)
	if err != nil {
		return 0, false, errors.Wrapf(err, "unable to parse instant value for query %q", query)
	}
	return value, true, nil
}

// QueryRange evaluates the query over [start, end] at the given step
func (p *PrometheusProvider) QueryRange(ctx context.Context, query string, start, end time.Time, step time.Duration) ([]Sample, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("start", strconv.FormatInt(start.Unix(), 10))
	params.Set("end", strconv.FormatInt(end.Unix(), 10))
	params.Set("step", strconv.FormatInt(int64(step.Seconds()), 10))

	resp, err := p.call(ctx, "/api/v1/query_range", params)
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for _, result := range resp.Data.Result {
		for _, pair := range result.Values {
			value, err := parseSampleValue(pair)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to parse range value for query %q", query)
			}
			samples = append(samples, Sample{Timestamp: parseSampleTime(pair), Value: value})
		}
	}
	return samples, nil
}

func (p *PrometheusProvider) call(ctx context.Context, path string, params url.Values) (*promResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to build prometheus request")
	}

	httpResp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "prometheus query failed")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("prometheus returned status %d", httpResp.StatusCode)
	}

	resp := &promResponse{}
	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return nil, errors.Wrap(err, "unable to decode prometheus response")
	}
	if resp.Status != "success" {
		return nil, errors.Errorf("prometheus query error: %s", resp.Error)
	}
	return resp, nil
}

// parseSampleValue extracts the value from a prometheus [timestamp, "value"] pair
func parseSampleValue(pair []interface{}) (float64, error) {
	if len(pair) < 2 {
		return 0, fmt.Errorf("sample pair doesn't contains required values")
	}
	switch v := pair[1].(type) {
	case string:
		return strconv.ParseFloat(v, 64)
	case float64:
		return v, nil
	}
	return 0, fmt.Errorf("unexpected sample value type %T", pair[1])
}

func parseSampleTime(pair []interface{}) time.Time {
	if len(pair) < 1 {
		return time.Time{}
	}
	if ts, ok := pair[0].(float64); ok {
		return time.Unix(int64(ts), 0)
	}
	return time.Time{}
}
