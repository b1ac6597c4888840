package datasource

import (
	"context"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/dexlens/dexlens/pkg/models"
)

// DefaultNewsFeeds lists the crypto market news RSS feeds shown in the
// screener side panel.
var DefaultNewsFeeds = []string{
	"https://cointelegraph.com/rss",
	"https://www.coindesk.com/arc/outboundfeeds/rss/",
	"https://decrypt.co/feed",
	"https://www.theblock.co/rss.xml",
}

// News fetches crypto market headlines over RSS.
type News struct {
	feeds   []string
	cache   *Cache
	limiter *RateLimiter
	parser  *gofeed.Parser
}

// NewNews creates a news source. An empty feed list uses the defaults.
func NewNews(feeds []string) *News {
	if len(feeds) == 0 {
		feeds = DefaultNewsFeeds
	}
	return &News{
		feeds:   feeds,
		cache:   NewCache(10 * time.Minute),
		limiter: NewRateLimiter(2, time.Second),
		parser:  gofeed.NewParser(),
	}
}

// Name returns the data source name.
func (n *News) Name() string { return "crypto-news" }

// GetHeadlines returns up to limit headlines across all feeds, newest
// first. Feeds that fail are skipped; an error is returned only when every
// feed failed.
func (n *News) GetHeadlines(ctx context.Context, limit int) ([]models.NewsItem, error) {
	if limit <= 0 {
		limit = 20
	}

	cacheKey := "headlines"
	if cached, ok := n.cache.Get(cacheKey); ok {
		items := cached.([]models.NewsItem)
		return clip(items, limit), nil
	}

	var items []models.NewsItem
	var lastErr error
	for _, feedURL := range n.feeds {
		if err := n.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		feed, err := n.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			lastErr = err
			continue
		}
		for _, it := range feed.Items {
			item := models.NewsItem{
				Title:   it.Title,
				Summary: it.Description,
				URL:     it.Link,
				Source:  feed.Title,
			}
			if it.PublishedParsed != nil {
				item.PublishedAt = *it.PublishedParsed
			}
			items = append(items, item)
		}
	}

	if len(items) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, nil
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	n.cache.Set(cacheKey, items)
	return clip(items, limit), nil
}

func clip(items []models.NewsItem, limit int) []models.NewsItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
