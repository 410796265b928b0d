// Package netx holds small HTTP client helpers.
package netx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// GetJSON performs a GET against url and decodes a 200 response body into
// dst. Any other status is returned as an error carrying the body.
func GetJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("request failed: %s; body: %s", resp.Status, string(b))
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}
