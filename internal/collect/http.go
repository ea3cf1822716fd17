package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// getJSON performs one page request and decodes the response body into out.
// Non-2xx responses and transport failures come back as *CollectionError
// carrying the page number.
func getJSON(ctx context.Context, client *http.Client, platform Platform, page int, rawURL string, query url.Values, header http.Header, out any) error {
	u := rawURL
	if len(query) > 0 {
		u = rawURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &CollectionError{Platform: platform, Page: page, Err: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &CollectionError{Platform: platform, Page: page, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CollectionError{Platform: platform, Page: page, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &CollectionError{
			Platform: platform,
			Page:     page,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("upstream returned %s: %s", resp.Status, truncateBody(body)),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &CollectionError{Platform: platform, Page: page, Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// truncateBody keeps error messages readable when upstream returns HTML
// error pages or long JSON blobs.
func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
