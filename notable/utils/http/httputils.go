package httputils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError is returned when the remote side answers with a non-2xx status.
// Body holds the raw response body so callers can relay it.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %d: %s", e.Status, e.Body)
}

// PostJSON posts body as JSON and decodes a 2xx response into resp.
func PostJSON(ctx context.Context, client *http.Client, url string, body interface{}, resp interface{}) error {
	return PostJSONWithAuth(ctx, client, url, "", body, resp)
}

// PostJSONWithAuth is PostJSON with an "Authorization: Bearer" header when apiKey is set.
func PostJSONWithAuth(ctx context.Context, client *http.Client, url, apiKey string, body interface{}, resp interface{}) error {
	return DoJSON(ctx, client, http.MethodPost, url, apiKey, body, resp)
}

// DoJSON sends an optional JSON body and decodes a JSON response into resp.
func DoJSON(ctx context.Context, client *http.Client, method, url, bearer string, body interface{}, resp interface{}) error {
	if client == nil {
		client = http.DefaultClient
	}
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	r, err := client.Do(req)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if r.StatusCode < 200 || r.StatusCode > 299 {
		b, _ := io.ReadAll(r.Body)
		return &StatusError{Status: r.StatusCode, Body: string(b)}
	}
	if resp != nil && r.StatusCode != http.StatusNoContent {
		return json.NewDecoder(r.Body).Decode(resp)
	}
	return nil
}
