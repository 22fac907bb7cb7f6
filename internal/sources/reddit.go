package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"chokepoint-radar/internal/domain"
)

const (
	redditDefaultBaseURL = "https://www.reddit.com"
	redditPostLimit      = 25
	redditTimeout        = 10 * time.Second
	redditUserAgent      = "ChokepointRadar/1.0"
)

// RedditSource fetches hot posts from a configured list of subreddits.
// Each subreddit is one feed fetch; a failing subreddit is logged and
// skipped without affecting the rest.
type RedditSource struct {
	baseURL    string
	subreddits []string
	client     *http.Client
	logger     *log.Logger
}

// NewRedditSource creates a Reddit source for the given subreddits.
// baseURL overrides the public endpoint; pass "" for the default.
func NewRedditSource(baseURL string, subreddits []string, logger *log.Logger) *RedditSource {
	if baseURL == "" {
		baseURL = redditDefaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RedditSource{
		baseURL:    baseURL,
		subreddits: subreddits,
		client:     &http.Client{},
		logger:     logger,
	}
}

// Name returns the source label.
func (s *RedditSource) Name() string {
	return "Reddit"
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title     string `json:"title"`
				Selftext  string `json:"selftext"`
				Permalink string `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Fetch retrieves hot posts from every configured subreddit.
func (s *RedditSource) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	var items []domain.RawItem

	for _, subreddit := range s.subreddits {
		posts, err := s.fetchSubreddit(ctx, subreddit)
		if err != nil {
			s.logger.Printf("Error scanning r/%s: %v", subreddit, err)
			continue
		}
		items = append(items, posts...)
	}

	return items, nil
}

func (s *RedditSource) fetchSubreddit(ctx context.Context, subreddit string) ([]domain.RawItem, error) {
	reqCtx, cancel := context.WithTimeout(ctx, redditTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", s.baseURL, subreddit, redditPostLimit)
	body, err := httpGet(reqCtx, s.client, url, map[string]string{"User-Agent": redditUserAgent})
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	items := make([]domain.RawItem, 0, len(listing.Data.Children))
	for _, post := range listing.Data.Children {
		items = append(items, domain.RawItem{
			Title:  post.Data.Title,
			Body:   post.Data.Selftext,
			URL:    "https://reddit.com" + post.Data.Permalink,
			Source: fmt.Sprintf("Reddit/%s", subreddit),
		})
	}

	return items, nil
}
