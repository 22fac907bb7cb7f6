package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"chokepoint-radar/internal/domain"
)

const (
	githubDefaultBaseURL = "https://api.github.com"
	githubQuery          = "/search/repositories?q=stars:>1000&sort=stars&order=desc&per_page=30"
	githubTimeout        = 10 * time.Second
)

// GitHubSource fetches trending repositories via a single search query.
type GitHubSource struct {
	baseURL string
	client  *http.Client
}

// NewGitHubSource creates a GitHub source. baseURL overrides the public
// API endpoint; pass "" for the default.
func NewGitHubSource(baseURL string) *GitHubSource {
	if baseURL == "" {
		baseURL = githubDefaultBaseURL
	}
	return &GitHubSource{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// Name returns the source label.
func (s *GitHubSource) Name() string {
	return "GitHub"
}

type githubSearchResponse struct {
	Items []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		HTMLURL     string `json:"html_url"`
	} `json:"items"`
}

// Fetch retrieves one page of high-star repositories.
func (s *GitHubSource) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	reqCtx, cancel := context.WithTimeout(ctx, githubTimeout)
	defer cancel()

	body, err := httpGet(reqCtx, s.client, s.baseURL+githubQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("search repositories: %w", err)
	}

	var resp githubSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]domain.RawItem, 0, len(resp.Items))
	for _, repo := range resp.Items {
		items = append(items, domain.RawItem{
			Title:  repo.Name,
			Body:   repo.Description,
			URL:    repo.HTMLURL,
			Source: s.Name(),
		})
	}

	return items, nil
}
