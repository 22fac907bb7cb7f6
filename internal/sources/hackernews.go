package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"chokepoint-radar/internal/domain"
)

// HackerNews fetch parameters.
const (
	hnDefaultBaseURL = "https://hacker-news.firebaseio.com/v0"
	hnStoryLimit     = 30
	hnListTimeout    = 10 * time.Second
	hnItemTimeout    = 5 * time.Second
)

// HackerNewsSource fetches top stories from the HackerNews Firebase API.
// The top-story ID list is one call; each story body is a separate call
// with its own short timeout, and individual story failures are skipped.
type HackerNewsSource struct {
	baseURL string
	client  *http.Client
}

// NewHackerNewsSource creates a HackerNews source. baseURL overrides the
// public API endpoint; pass "" for the default.
func NewHackerNewsSource(baseURL string) *HackerNewsSource {
	if baseURL == "" {
		baseURL = hnDefaultBaseURL
	}
	return &HackerNewsSource{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// Name returns the source label.
func (s *HackerNewsSource) Name() string {
	return "HackerNews"
}

// hnStory is the subset of the HN item payload we consume.
type hnStory struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// Fetch retrieves the top story IDs and then the first 30 story bodies.
func (s *HackerNewsSource) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	listCtx, cancel := context.WithTimeout(ctx, hnListTimeout)
	defer cancel()

	body, err := httpGet(listCtx, s.client, s.baseURL+"/topstories.json", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch top stories: %w", err)
	}

	var storyIDs []int64
	if err := json.Unmarshal(body, &storyIDs); err != nil {
		return nil, fmt.Errorf("decode top stories: %w", err)
	}

	if len(storyIDs) > hnStoryLimit {
		storyIDs = storyIDs[:hnStoryLimit]
	}

	var items []domain.RawItem
	for _, id := range storyIDs {
		story, ok := s.fetchStory(ctx, id)
		if !ok {
			continue
		}
		url := story.URL
		if url == "" {
			url = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", id)
		}
		items = append(items, domain.RawItem{
			Title:  story.Title,
			Body:   story.Text,
			URL:    url,
			Source: s.Name(),
		})
	}

	return items, nil
}

// fetchStory retrieves one story. Failures and stories without a title are
// skipped silently; only the top-story list fetch can fail the source.
func (s *HackerNewsSource) fetchStory(ctx context.Context, id int64) (hnStory, bool) {
	itemCtx, cancel := context.WithTimeout(ctx, hnItemTimeout)
	defer cancel()

	body, err := httpGet(itemCtx, s.client, fmt.Sprintf("%s/item/%d.json", s.baseURL, id), nil)
	if err != nil {
		return hnStory{}, false
	}

	var story hnStory
	if err := json.Unmarshal(body, &story); err != nil {
		return hnStory{}, false
	}
	if story.Title == "" {
		return hnStory{}, false
	}
	return story, true
}
