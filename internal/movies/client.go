// Package movies talks to the external movie catalog: searching eligible
// movies for a draft theme and fetching enrichment metadata for picks.
package movies

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
)

// Catalog is the external movie collaborator.
type Catalog interface {
	// Search returns candidate movies for a theme/option pair, e.g. all
	// movies of a year or a person's filmography.
	Search(ctx context.Context, theme models.DraftTheme, option string) ([]models.Movie, error)
	// Metadata fetches enrichment fields for one movie. Partial data is
	// normal; absent fields stay nil.
	Metadata(ctx context.Context, movieID int64) (*models.MovieMetadata, error)
}

// Client is an HTTP Catalog implementation.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.URL.RawQuery = query.Encode()
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("movie catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("movie catalog returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}

func (c *Client) Search(ctx context.Context, theme models.DraftTheme, option string) ([]models.Movie, error) {
	query := url.Values{}
	query.Set("theme", string(theme))
	query.Set("option", option)

	var payload struct {
		Results []models.Movie `json:"results"`
	}
	if err := c.get(ctx, "/movies/search", query, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *Client) Metadata(ctx context.Context, movieID int64) (*models.MovieMetadata, error) {
	var meta models.MovieMetadata
	if err := c.get(ctx, "/movies/"+strconv.FormatInt(movieID, 10)+"/metadata", url.Values{}, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
