package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"
)

func existsHTTP(ctx context.Context, client *http.Client, url string, timeout time.Duration) (bool, error) {
	resp, cancel, err := doHTTP(ctx, client, http.MethodHead, url, timeout)
	if err != nil {
		return false, err
	}
	defer cancel()
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, errors.New("loader: unexpected status " + resp.Status)
	}
}

func loadHTTP(ctx context.Context, client *http.Client, url string, timeout time.Duration) ([]byte, error) {
	resp, cancel, err := doHTTP(ctx, client, http.MethodGet, url, timeout)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, fmt.Errorf("loader: %s: %w", url, fs.ErrNotExist)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("loader: unexpected status " + resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func doHTTP(ctx context.Context, client *http.Client, method, url string, timeout time.Duration) (*http.Response, context.CancelFunc, error) {
	if client == nil {
		return nil, nil, errors.New("loader: http client is not configured")
	}
	if url == "" {
		return nil, nil, errors.New("loader: url is required")
	}

	reqCtx := ctx
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, url, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return resp, cancel, nil
}
