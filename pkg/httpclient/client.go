package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

var client = http.Client{
	Timeout: 15 * time.Second,
}

// DoRequest issues a JSON request and decodes the response body into v when
// the call succeeds. The response status code is returned in every case so
// callers can translate upstream error payloads themselves.
func DoRequest(ctx context.Context, method, url string, headers map[string]string, payload []byte, v interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	for k, val := range headers {
		req.Header.Add(k, val)
	}

	res, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		d, err := io.ReadAll(res.Body)
		if err != nil {
			return res.StatusCode, fmt.Errorf("read body: %w", err)
		}
		return res.StatusCode, &StatusError{StatusCode: res.StatusCode, Body: d}
	}

	if v == nil {
		return res.StatusCode, nil
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return res.StatusCode, fmt.Errorf("decode body: %w", err)
	}
	return res.StatusCode, nil
}

// StatusError carries the raw body of a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status: %d: %s", e.StatusCode, e.Body)
}
