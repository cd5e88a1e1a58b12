package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// jwget performs an HTTP GET request to addr and unmarshals the JSON response
// body into data. The status code is returned whenever a response was
// received.
func jwget(ctx context.Context, client *http.Client, addr string, data any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// never echo the query, it carries the api token.
		return resp.StatusCode, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	return resp.StatusCode, json.Unmarshal(content, data)
}
