// Package tspclient is an HTTP client for a trace server speaking the
// Trace Server Protocol.
package tspclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/segmentio/encoding/json"

	"github.com/traceviewer/tracechart/internal/datasource"
	"github.com/traceviewer/tracechart/internal/observability"
	"github.com/traceviewer/tracechart/internal/options"
)

// ErrStatus is returned when the server answers with a non-2xx status.
var ErrStatus = errors.New("tspclient: unexpected HTTP status")

const (
	DefaultRetryMax     = 3
	DefaultRetryWaitMin = 200 * time.Millisecond
	DefaultRetryWaitMax = 5 * time.Second
	DefaultTimeout      = 30 * time.Second

	// maxErrorBody bounds how much of an error response is quoted.
	maxErrorBody = 512
)

// Client implements datasource.DataSource and datasource.ExperimentSource.
type Client struct {
	baseURL string
	headers map[string]string
	logger  *observability.CoreLogger
	retry   *retryablehttp.Client
}

var (
	_ datasource.DataSource       = (*Client)(nil)
	_ datasource.ExperimentSource = (*Client)(nil)
)

func WithLogger(logger *observability.CoreLogger) options.Option[Client] {
	return func(c *Client) {
		c.logger = logger
		c.retry.Logger = slog.NewLogLogger(logger.Logger.Handler(), slog.LevelDebug)
	}
}

func WithRetryMax(retryMax int) options.Option[Client] {
	return func(c *Client) { c.retry.RetryMax = retryMax }
}

func WithRetryWait(minWait, maxWait time.Duration) options.Option[Client] {
	return func(c *Client) {
		c.retry.RetryWaitMin = minWait
		c.retry.RetryWaitMax = maxWait
	}
}

func WithTimeout(timeout time.Duration) options.Option[Client] {
	return func(c *Client) { c.retry.HTTPClient.Timeout = timeout }
}

func WithTransport(transport http.RoundTripper) options.Option[Client] {
	return func(c *Client) { c.retry.HTTPClient.Transport = transport }
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) options.Option[Client] {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// New returns a client for the server whose API root is baseURL,
// for example "http://localhost:8080/tsp/api".
func New(baseURL string, opts ...options.Option[Client]) *Client {
	retry := retryablehttp.NewClient()
	retry.RetryMax = DefaultRetryMax
	retry.RetryWaitMin = DefaultRetryWaitMin
	retry.RetryWaitMax = DefaultRetryWaitMax
	retry.HTTPClient.Timeout = DefaultTimeout
	retry.CheckRetry = RetryMostFailures
	retry.Logger = nil

	// Hand the last response back so its status can be reported.
	retry.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: map[string]string{"User-Agent": "tracechart"},
		logger:  observability.NewNoOpLogger(),
		retry:   retry,
	}
	options.Apply(c, opts...)
	return c
}

func (c *Client) outputURL(traceID, outputID, endpoint string) string {
	return fmt.Sprintf("%s/experiments/%s/outputs/XY/%s/%s",
		c.baseURL,
		url.PathEscape(traceID),
		url.PathEscape(outputID),
		endpoint)
}

// FetchTree implements datasource.DataSource.
func (c *Client) FetchTree(
	ctx context.Context,
	traceID, outputID string,
	query datasource.RangeQuery,
) (datasource.TreeResult, error) {
	var resp genericResponse[wireTreeModel]
	err := c.do(ctx, http.MethodPost,
		c.outputURL(traceID, outputID, "tree"),
		treeQueryBody(query),
		&resp)
	if err != nil {
		return datasource.TreeResult{}, err
	}

	result := datasource.TreeResult{
		Status:        datasource.ParseStatus(resp.Status),
		StatusMessage: resp.StatusMessage,
	}
	if resp.Model != nil {
		result.Model = resp.Model.toModel()
	}
	return result, nil
}

// FetchSeries implements datasource.DataSource.
func (c *Client) FetchSeries(
	ctx context.Context,
	traceID, outputID string,
	query datasource.SelectionQuery,
) (datasource.SeriesResult, error) {
	var resp genericResponse[wireXYModel]
	err := c.do(ctx, http.MethodPost,
		c.outputURL(traceID, outputID, "xy"),
		seriesQueryBody(query),
		&resp)
	if err != nil {
		return datasource.SeriesResult{}, err
	}

	result := datasource.SeriesResult{
		Status:        datasource.ParseStatus(resp.Status),
		StatusMessage: resp.StatusMessage,
	}
	if resp.Model != nil {
		model, err := resp.Model.toModel()
		if err != nil {
			return datasource.SeriesResult{}, err
		}
		result.Model = model
	}
	return result, nil
}

// FetchExperiment implements datasource.ExperimentSource.
func (c *Client) FetchExperiment(
	ctx context.Context,
	traceID string,
) (datasource.Experiment, error) {
	var exp wireExperiment
	err := c.do(ctx, http.MethodGet,
		fmt.Sprintf("%s/experiments/%s", c.baseURL, url.PathEscape(traceID)),
		nil,
		&exp)
	if err != nil {
		return datasource.Experiment{}, err
	}
	return datasource.Experiment{
		UUID:  exp.UUID,
		Name:  exp.Name,
		Start: exp.Start,
		End:   exp.End,
	}, nil
}

// do sends a JSON request and decodes the JSON response into out.
func (c *Client) do(
	ctx context.Context,
	method, endpoint string,
	body any,
	out any,
) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("tspclient: encode request: %v", err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return fmt.Errorf("tspclient: build request: %v", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.retry.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("tspclient: %s %s: %v", method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("tspclient: response",
		"method", method,
		"url", endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %s: %d %s",
			ErrStatus, method, endpoint, resp.StatusCode,
			strings.TrimSpace(string(bytes.ToValidUTF8(snippet, nil))))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("tspclient: read response: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("tspclient: decode response: %v", err)
	}
	return nil
}
