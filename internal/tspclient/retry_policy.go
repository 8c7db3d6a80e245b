package tspclient

import (
	"context"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// RetryMostFailures retries connection problems and most 4xx and 5xx
// responses.
//
// Requests the server will never accept (bad parameters, unknown
// experiment or output) are not retried.
func RetryMostFailures(
	ctx context.Context,
	resp *http.Response,
	err error,
) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	// retryablehttp knows which transport errors are permanent.
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusMethodNotAllowed,
		http.StatusGone,
		http.StatusUnprocessableEntity,
		http.StatusNotImplemented:
		return false, nil
	}

	if resp.StatusCode == 0 || resp.StatusCode >= 600 {
		return true, nil
	}

	return resp.StatusCode >= 400 && resp.StatusCode <= 599, nil
}
