package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/golang/glog"
)

// Fetcher hitting a plain HTTP tile endpoint. Cancellation of the request
// context maps to the abort outcome, every other failure to error.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, responseType ResponseType) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		glog.Warningf("fetch %s: %v", url, err)
		return Result{Status: StatusError}
	}
	if responseType == ResponseTypeJSON {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return Result{Status: StatusAbort}
		}
		glog.Warningf("fetch %s: %v", url, err)
		return Result{Status: StatusError}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		glog.Warningf("fetch %s: status %d", url, resp.StatusCode)
		return Result{Status: StatusError}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return Result{Status: StatusAbort}
		}
		glog.Warningf("fetch %s: read body: %v", url, err)
		return Result{Status: StatusError}
	}

	return Result{Status: StatusReady, Data: data}
}
