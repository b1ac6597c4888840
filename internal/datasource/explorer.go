package datasource

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/dexlens/dexlens/pkg/models"
)

// HolderEnricher fills in the holder-concentration block for records the
// feed delivered without one, by scraping the explorer's holders page.
type HolderEnricher struct {
	baseURL string // e.g., "https://explorer.example.com/token/%s/holders"
	client  *http.Client
	limiter *RateLimiter
	cache   *Cache
}

// NewHolderEnricher creates an enricher against the given holders-page
// URL template (one %s for the token address). proxy may be empty.
func NewHolderEnricher(baseURL, proxy string) (*HolderEnricher, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("explorer URL is empty")
	}
	client, err := newHTTPClient(proxy)
	if err != nil {
		return nil, err
	}
	return &HolderEnricher{
		baseURL: baseURL,
		client:  client,
		limiter: NewRateLimiter(4, time.Second),
		cache:   NewCache(10 * time.Minute),
	}, nil
}

// Enrich fills the Holders block for every record that lacks one, with
// bounded concurrency. Individual scrape failures leave the record as-is;
// only a cancelled context aborts the pass.
func (e *HolderEnricher) Enrich(ctx context.Context, records []models.TokenRecord) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i := range records {
		if records[i].Holders != nil {
			continue
		}
		rec := &records[i]
		g.Go(func() error {
			stats, err := e.fetchHolders(ctx, rec.Address)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil // best effort per token
			}
			rec.Holders = stats
			return nil
		})
	}
	return g.Wait()
}

// fetchHolders scrapes one token's holders page.
func (e *HolderEnricher) fetchHolders(ctx context.Context, address string) (*models.HolderStats, error) {
	cacheKey := "holders:" + address
	if cached, ok := e.cache.Get(cacheKey); ok {
		return cached.(*models.HolderStats), nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf(e.baseURL, address)
	body, _, err := doGet(ctx, e.client, url, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, fmt.Errorf("holders page %s: %w", address, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse holders HTML: %w", err)
	}

	stats := parseHolderTable(doc)
	if stats == nil {
		return nil, fmt.Errorf("no holder rows for %s", address)
	}

	e.cache.Set(cacheKey, stats)
	return stats, nil
}

// parseHolderTable extracts concentration shares from the holders table.
// Rows are ordered by balance descending; each row carries a .percent cell
// and an optional label cell marking burn and insider wallets.
func parseHolderTable(doc *goquery.Document) *models.HolderStats {
	var shares []float64
	var burned, insiders float64

	doc.Find("#holders table tbody tr").Each(func(i int, row *goquery.Selection) {
		pctText := strings.TrimSpace(row.Find(".percent").Text())
		pct := parsePercent(pctText)

		label := strings.ToLower(strings.TrimSpace(row.Find(".label").Text()))
		switch {
		case strings.Contains(label, "burn"):
			burned += pct
		case strings.Contains(label, "insider"):
			insiders += pct
			shares = append(shares, pct)
		default:
			shares = append(shares, pct)
		}
	})

	if len(shares) == 0 && burned == 0 {
		return nil
	}

	stats := &models.HolderStats{
		BurnedPercent:   burned,
		InsidersPercent: insiders,
	}
	for i, s := range shares {
		if i < 1 {
			stats.Top1Share += s
		}
		if i < 5 {
			stats.Top5Share += s
		}
		if i < 20 {
			stats.Top20Share += s
		}
	}
	return stats
}

// parsePercent reads "12.34%" or "12.34" into a float, 0 on failure.
func parsePercent(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
