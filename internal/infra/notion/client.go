package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/yanqian/jobfit/internal/domain/matching"
)

const (
	defaultHost    = "api.notion.com"
	defaultVersion = "2022-06-28"
	pageSize       = 100
	maxPages       = 20
	maxRetries     = 3
)

// Config names the database and the properties that hold resume content.
type Config struct {
	Token            string
	BaseURL          string
	Version          string
	DatabaseID       string
	AllowedDatabases []string
	TitleProperty    string
	ContentProperty  string
	TypeProperty     string
}

// Client queries a Notion database of resume entries.
type Client struct {
	cfg     Config
	api     *notionapi.Client
	allowed map[string]struct{}
}

// NewClient builds an API client. A BaseURL on another host than the public
// API redirects every request to that host.
func NewClient(cfg Config) *Client {
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	if cfg.TitleProperty == "" {
		cfg.TitleProperty = "Name"
	}
	if cfg.ContentProperty == "" {
		cfg.ContentProperty = "Content"
	}
	if cfg.TypeProperty == "" {
		cfg.TypeProperty = "Type"
	}
	httpClient := &http.Client{Timeout: 10 * time.Second}
	if target := overrideTarget(cfg.BaseURL); target != nil {
		httpClient.Transport = hostRewriter{target: target, next: http.DefaultTransport}
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedDatabases)+1)
	for _, id := range append([]string{cfg.DatabaseID}, cfg.AllowedDatabases...) {
		if key := normalizeID(id); key != "" {
			allowed[key] = struct{}{}
		}
	}
	return &Client{
		cfg: cfg,
		api: notionapi.NewClient(
			notionapi.Token(cfg.Token),
			notionapi.WithHTTPClient(httpClient),
			notionapi.WithVersion(cfg.Version),
			notionapi.WithRetry(maxRetries),
		),
		allowed: allowed,
	}
}

// FetchBlocks loads every page of databaseID and maps it to a resume block.
// An empty databaseID uses the configured default.
func (c *Client) FetchBlocks(ctx context.Context, databaseID string) ([]matching.ResumeBlock, error) {
	pages, err := c.QueryDatabase(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	blocks := make([]matching.ResumeBlock, 0, len(pages))
	for _, page := range pages {
		if block, ok := c.toBlock(page); ok {
			blocks = append(blocks, block)
		}
	}
	return blocks, nil
}

// QueryDatabase returns all pages of a database, following pagination. Only
// the configured database and the allowlist may be queried.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string) ([]Page, error) {
	databaseID = strings.TrimSpace(databaseID)
	if databaseID == "" {
		databaseID = c.cfg.DatabaseID
	}
	if databaseID == "" {
		return nil, errors.New("notion database id is required")
	}
	if _, ok := c.allowed[normalizeID(databaseID)]; !ok {
		return nil, fmt.Errorf("%w: notion database %s", matching.ErrSourceNotAllowed, databaseID)
	}
	var (
		pages  []Page
		cursor notionapi.Cursor
	)
	for i := 0; i < maxPages; i++ {
		resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("query notion database %s: %w", databaseID, err)
		}
		for _, raw := range resp.Results {
			pages = append(pages, decodePage(raw))
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
	return pages, fmt.Errorf("notion database %s exceeds %d result pages", databaseID, maxPages)
}

func (c *Client) toBlock(page Page) (matching.ResumeBlock, bool) {
	text := page.Text(c.cfg.ContentProperty)
	if text == "" {
		text = page.Text(c.cfg.TitleProperty)
	}
	if text == "" {
		return matching.ResumeBlock{}, false
	}
	return matching.ResumeBlock{
		ContentType: matching.ParseContentType(page.Text(c.cfg.TypeProperty)),
		Text:        text,
	}, true
}

func decodePage(raw notionapi.Page) Page {
	page := Page{ID: string(raw.ID), Properties: make(map[string]Property, len(raw.Properties))}
	for name, prop := range raw.Properties {
		page.Properties[name] = decodeProperty(prop)
	}
	return page
}

// normalizeID folds the dashed and undashed forms of a Notion id together.
func normalizeID(id string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(id), "-", ""))
}

func overrideTarget(base string) *url.URL {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" || parsed.Host == defaultHost {
		return nil
	}
	return parsed
}

type hostRewriter struct {
	target *url.URL
	next   http.RoundTripper
}

func (h hostRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = h.target.Scheme
	out.URL.Host = h.target.Host
	out.Host = h.target.Host
	return h.next.RoundTrip(out)
}

var _ matching.ResumeSource = (*Client)(nil)
