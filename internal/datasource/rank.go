package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/araddon/dateparse"

	"github.com/dexlens/dexlens/pkg/models"
)

// rankResponse is the envelope returned by the token-rank endpoint.
type rankResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Rank []rankToken `json:"rank"`
	} `json:"data"`
}

// rankToken is one raw feed entry. Timestamps arrive as free-form strings
// and the holders block is optional.
type rankToken struct {
	Chain          string  `json:"chain"`
	Address        string  `json:"address"`
	Symbol         string  `json:"symbol"`
	Price          float64 `json:"price"`
	PriceChange24h float64 `json:"price_change_24h"`
	Slippage       float64 `json:"slippage"`
	HolderCount    int     `json:"holder_count"`
	MarketCap      float64 `json:"market_cap"`
	DeployedAt     string  `json:"deployed_at"`
	Holders        *struct {
		Top1Share       float64 `json:"top1_share"`
		Top5Share       float64 `json:"top5_share"`
		Top20Share      float64 `json:"top20_share"`
		BurnedPercent   float64 `json:"burned_percent"`
		InsidersPercent float64 `json:"insiders_percent"`
	} `json:"holders"`
}

// RankFeed fetches the full token-rank snapshot from the configured URL.
type RankFeed struct {
	url     string
	client  *http.Client
	limiter *RateLimiter
}

// NewRankFeed creates a rank feed client. proxy may be empty.
func NewRankFeed(rankURL, proxy string) (*RankFeed, error) {
	if rankURL == "" {
		return nil, fmt.Errorf("rank feed URL is empty")
	}
	client, err := newHTTPClient(proxy)
	if err != nil {
		return nil, err
	}
	return &RankFeed{
		url:     rankURL,
		client:  client,
		limiter: NewRateLimiter(2, time.Second),
	}, nil
}

// Name returns the data source name.
func (f *RankFeed) Name() string { return "rank-feed" }

// Fetch downloads and decodes one full snapshot. Entries are deduped by
// chain+address, keeping the first (highest-ranked) occurrence.
func (f *RankFeed) Fetch(ctx context.Context) ([]models.TokenRecord, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, _, err := doGet(ctx, f.client, f.url, map[string]string{
		"Accept": "application/json, text/plain, */*",
	})
	if err != nil {
		return nil, fmt.Errorf("rank feed: %w", err)
	}
	defer body.Close()

	var resp rankResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode rank response: %w", err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%w: code %d: %s", ErrFeedError, resp.Code, resp.Msg)
	}

	records := make([]models.TokenRecord, 0, len(resp.Data.Rank))
	seen := make(map[string]struct{}, len(resp.Data.Rank))
	for _, raw := range resp.Data.Rank {
		rec := toRecord(raw)
		key := rec.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		records = append(records, rec)
	}
	return records, nil
}

// toRecord converts a raw feed entry into a TokenRecord. A deploy timestamp
// that fails to parse is dropped (zero time), never an error: the table
// renders the age as absent instead.
func toRecord(raw rankToken) models.TokenRecord {
	rec := models.TokenRecord{
		Chain:          raw.Chain,
		Address:        raw.Address,
		Symbol:         raw.Symbol,
		Price:          raw.Price,
		PriceChange24h: raw.PriceChange24h,
		Slippage:       raw.Slippage,
		HolderCount:    raw.HolderCount,
		MarketCap:      raw.MarketCap,
	}
	if rec.Chain == "" {
		rec.Chain = "solana"
	}
	if raw.DeployedAt != "" {
		if t, err := dateparse.ParseAny(raw.DeployedAt); err == nil {
			rec.DeployedAt = t.UTC()
		}
	}
	if raw.Holders != nil {
		rec.Holders = &models.HolderStats{
			Top1Share:       raw.Holders.Top1Share,
			Top5Share:       raw.Holders.Top5Share,
			Top20Share:      raw.Holders.Top20Share,
			BurnedPercent:   raw.Holders.BurnedPercent,
			InsidersPercent: raw.Holders.InsidersPercent,
		}
	}
	return rec
}
