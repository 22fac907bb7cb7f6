package sources

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"chokepoint-radar/internal/domain"
)

const (
	arxivDefaultBaseURL = "http://export.arxiv.org/api"
	arxivResultLimit    = 20
	arxivTimeout        = 15 * time.Second
)

// Tolerant Atom extraction. The upstream feed is stable enough that
// pattern matching on entries beats carrying a strict schema: entries
// missing a title or summary are simply skipped.
var (
	arxivEntryRe   = regexp.MustCompile(`(?s)<entry>(.*?)</entry>`)
	arxivTitleRe   = regexp.MustCompile(`(?s)<title>(.*?)</title>`)
	arxivSummaryRe = regexp.MustCompile(`(?s)<summary>(.*?)</summary>`)
	arxivIDRe      = regexp.MustCompile(`<id>(.*?)</id>`)
)

// ArxivSource fetches recent preprints from a configured list of
// categories. Each category is one feed fetch; a failing category is
// logged and skipped.
type ArxivSource struct {
	baseURL    string
	categories []string
	client     *http.Client
	logger     *log.Logger
}

// NewArxivSource creates an ArXiv source for the given categories.
// baseURL overrides the public endpoint; pass "" for the default.
func NewArxivSource(baseURL string, categories []string, logger *log.Logger) *ArxivSource {
	if baseURL == "" {
		baseURL = arxivDefaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ArxivSource{
		baseURL:    baseURL,
		categories: categories,
		client:     &http.Client{},
		logger:     logger,
	}
}

// Name returns the source label.
func (s *ArxivSource) Name() string {
	return "ArXiv"
}

// Fetch retrieves the newest preprints in every configured category.
func (s *ArxivSource) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	var items []domain.RawItem

	for _, category := range s.categories {
		entries, err := s.fetchCategory(ctx, category)
		if err != nil {
			s.logger.Printf("Error scanning ArXiv %s: %v", category, err)
			continue
		}
		items = append(items, entries...)
	}

	return items, nil
}

func (s *ArxivSource) fetchCategory(ctx context.Context, category string) ([]domain.RawItem, error) {
	reqCtx, cancel := context.WithTimeout(ctx, arxivTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/query?search_query=cat:%s&sortBy=submittedDate&sortOrder=descending&max_results=%d",
		s.baseURL, category, arxivResultLimit)
	body, err := httpGet(reqCtx, s.client, url, nil)
	if err != nil {
		return nil, err
	}

	var items []domain.RawItem
	for _, match := range arxivEntryRe.FindAllStringSubmatch(string(body), -1) {
		entry := match[1]

		title := firstGroup(arxivTitleRe, entry)
		summary := firstGroup(arxivSummaryRe, entry)
		if title == "" || summary == "" {
			continue
		}

		items = append(items, domain.RawItem{
			Title:  title,
			Body:   summary,
			URL:    firstGroup(arxivIDRe, entry),
			Source: fmt.Sprintf("ArXiv/%s", category),
		})
	}

	return items, nil
}

// firstGroup returns the trimmed first capture group, or "" on no match.
func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
