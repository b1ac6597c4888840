// Package models defines the core data structures used throughout dexlens.
package models

import "time"

// TokenRecord is one tradable token as delivered by the rank feed.
// Records are immutable once ingested; a refresh replaces the whole set.
type TokenRecord struct {
	Address        string       `json:"address"`          // mint / contract address
	Chain          string       `json:"chain"`            // e.g., "solana"
	Symbol         string       `json:"symbol"`           // display symbol, e.g., "MICHI"
	Price          float64      `json:"price"`            // USD
	PriceChange24h float64      `json:"price_change_24h"` // percent, e.g., -3.456
	Slippage       float64      `json:"slippage"`         // percent; <= 0.31 counts as liquid
	HolderCount    int          `json:"holder_count"`
	MarketCap      float64      `json:"market_cap"` // USD
	Holders        *HolderStats `json:"holders,omitempty"`
	DeployedAt     time.Time    `json:"deployed_at"` // zero when the feed did not report it
}

// HolderStats is the holder-concentration block. It is optional on a record;
// a nil block means the feed (and enrichment) had no data.
type HolderStats struct {
	Top1Share       float64 `json:"top1_share"`       // percent held by the largest holder
	Top5Share       float64 `json:"top5_share"`       // percent held by the top 5
	Top20Share      float64 `json:"top20_share"`      // percent held by the top 20
	BurnedPercent   float64 `json:"burned_percent"`   // percent of supply burned
	InsidersPercent float64 `json:"insiders_percent"` // percent held by insider wallets
}

// Key returns the dedupe key for a record (chain + address).
func (r *TokenRecord) Key() string {
	return r.Chain + "|" + r.Address
}
