package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// Shabad is the display metadata the catalog service returns for a
// resolved id. Lines hold the gurmukhi text in verse order.
type Shabad struct {
	ID    string
	Ang   int
	Lines []string
}

// Client is a thin proxy to the external GurbaniNow catalog API. It only
// ever receives a shabad_id string as a lookup key; the identification
// core works fine when the catalog is unreachable, so callers treat a
// lookup failure as degraded display, not a failed identification.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient builds a client for baseURL (e.g. https://api.gurbaninow.com/v2).
// Requests carry a 5 second timeout so a slow catalog can never stall an
// identification response.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Lookup fetches display metadata for shabadID.
func (c *Client) Lookup(ctx context.Context, shabadID string) (*Shabad, error) {
	url := fmt.Sprintf("%s/shabad/%s", c.baseURL, shabadID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building catalog request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup for %s: %w", shabadID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog lookup for %s: status %d", shabadID, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading catalog response: %w", err)
	}

	shabad := &Shabad{
		ID:  shabadID,
		Ang: int(gjson.GetBytes(body, "shabadinfo.pageno").Int()),
	}
	for _, line := range gjson.GetBytes(body, "shabad.#.line.gurmukhi.unicode").Array() {
		shabad.Lines = append(shabad.Lines, line.String())
	}
	return shabad, nil
}
