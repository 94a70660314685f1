package chromium

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hamflx/fetchbrowser/internal/fetcherr"
)

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &fetcherr.TransportError{URL: url, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return &fetcherr.TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &fetcherr.TransportError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &fetcherr.FormatError{Source: url, Err: err}
	}
	return nil
}
